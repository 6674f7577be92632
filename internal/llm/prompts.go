package llm

import (
	"encoding/json"
	"fmt"

	"github.com/Harshitk-cp/proofstream/internal/domain"
)

const attemptSystemPrompt = `You are a careful research mathematician. Attempt a rigorous proof of the statement you are given.

Write the proof as numbered steps ("Step 1:", "Step 2:", ...). State every lemma you rely on.
If the statement is false, give a counterexample instead. If you cannot finish, say which step is missing.`

const classifyPrompt = `Classify the following proof attempt.

Statement: %s

Proof attempt:
%s

Choose one verdict:
- PROVED: the attempt is a complete proof of the statement
- DISPROVED: the attempt shows the statement is false
- PARTIAL: the attempt makes real progress but leaves gaps
- UNCLEAR: none of the above can be decided

Respond ONLY with JSON, no markdown fences:
{"verdict":"PROVED|DISPROVED|PARTIAL|UNCLEAR","reason":"one sentence"}`

const decomposePrompt = `Split the following proof into sublemmas, in the order they are used.

Statement: %s

Proof:
%s

Each sublemma has a short title ("Step N: ..."), a precise statement and its proof.

Respond ONLY with JSON, no markdown fences:
{"sublemmas":[{"title":"Step 1: ...","statement":"...","proof":"..."}]}`

const reviewPrompt = `Review the following proof for correctness and rigor.

Statement: %s

Proof:
%s

Report each problem with the (1-based) step it occurs in, or 0 if it concerns the whole proof.
Severity is one of "minor", "major", "critical".

Respond ONLY with JSON, no markdown fences:
{"verdict":"OK|ISSUES|UNCLEAR","summary":"...","issues":[{"step":1,"severity":"major","description":"..."}]}`

const revisePrompt = `Revise the proof steps below following the instruction.

Statement: %s

Current steps (JSON):
%s

Instruction: %s

Return the full list of steps when you change several of them. When you change exactly one step,
you may return only that step; keep its "Step N:" title so it can be placed correctly.

Respond ONLY with JSON, no markdown fences:
{"revised_steps":[{"title":"Step 1: ...","statement":"...","proof":"..."}],"explanation":"..."}`

const chatSystemPrompt = `You are a helpful assistant for working mathematicians. Answer precisely and use LaTeX for formulas.`

const extractPrompt = `Extract the reusable mathematical artifacts from the answer below.

Answer:
%s

Each artifact has a kind (one of "definition", "lemma", "theorem", "example", "note"), a short title and its content.

Respond ONLY with JSON, no markdown fences:
{"artifacts":[{"kind":"lemma","title":"...","content":"..."}]}

If there is nothing worth extracting, respond with {"artifacts":[]}`

var structuredTemperature float32 = 0.2

func userPrompt(text string) []domain.Message {
	return []domain.Message{{Role: "user", Content: text}}
}

func AttemptPrompt(statement string) domain.Prompt {
	return domain.Prompt{
		System:   attemptSystemPrompt,
		Messages: userPrompt(statement),
	}
}

func ClassifyPrompt(statement, proof string) domain.Prompt {
	return domain.Prompt{
		Messages:    userPrompt(fmt.Sprintf(classifyPrompt, statement, proof)),
		JSON:        true,
		Temperature: &structuredTemperature,
	}
}

func DecomposePrompt(statement, proof string) domain.Prompt {
	return domain.Prompt{
		Messages:    userPrompt(fmt.Sprintf(decomposePrompt, statement, proof)),
		JSON:        true,
		Temperature: &structuredTemperature,
	}
}

func ReviewPrompt(statement, proof string) domain.Prompt {
	return domain.Prompt{
		Messages:    userPrompt(fmt.Sprintf(reviewPrompt, statement, proof)),
		JSON:        true,
		Temperature: &structuredTemperature,
	}
}

func RevisePrompt(statement string, steps []domain.Sublemma, instruction string) domain.Prompt {
	stepsJSON, err := json.MarshalIndent(steps, "", "  ")
	if err != nil {
		stepsJSON = []byte("[]")
	}
	return domain.Prompt{
		Messages:    userPrompt(fmt.Sprintf(revisePrompt, statement, stepsJSON, instruction)),
		JSON:        true,
		Temperature: &structuredTemperature,
	}
}

func ChatPrompt(history []domain.Message) domain.Prompt {
	return domain.Prompt{
		System:   chatSystemPrompt,
		Messages: history,
	}
}

func ExtractPrompt(answer string) domain.Prompt {
	return domain.Prompt{
		Messages:    userPrompt(fmt.Sprintf(extractPrompt, answer)),
		JSON:        true,
		Temperature: &structuredTemperature,
	}
}
