package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/llm"
	"github.com/Harshitk-cp/proofstream/internal/llmerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	classifyJSON  = `{"verdict":"PROVED","reason":"complete induction"}`
	decomposeJSON = "```json\n" + `{"sublemmas":[{"title":"Step 1: base","statement":"P(0)","proof":"trivial"},{"title":"Step 2: step","statement":"P(n) => P(n+1)","proof":"algebra"}]}` + "\n```"
)

func mockTarget() Target { return Target{Provider: "mock", Model: "m"} }

func TestAttempt_FullSequence(t *testing.T) {
	mock := llm.NewMockClient().On("m",
		frags("Step 1: ", "base case."),
		frags(classifyJSON),
		frags(decomposeJSON),
	)
	o, _ := newTestOrchestrator(mock)

	rec := &recorder{}
	res, err := o.Attempt(context.Background(), AttemptInput{Target: mockTarget(), Statement: "for all n, P(n)"}, rec.emit)
	require.NoError(t, err)

	assert.Equal(t, "Step 1: base case.", res.Text)
	assert.Equal(t, "mock/m", res.Candidate)
	assert.Equal(t, domain.VerdictProved, res.Classification.Verdict)
	assert.Len(t, res.Sublemmas, 2)
	assert.Empty(t, res.DecomposeError)

	assert.Equal(t, []domain.ChunkType{
		domain.ChunkAttempt,
		start, delta, delta, end,
		domain.ChunkProgress, domain.ChunkClassifyStart, domain.ChunkClassifyResult, domain.ChunkClassifyEnd,
		domain.ChunkProgress, domain.ChunkDecomposeStart, domain.ChunkDecomposeResult,
	}, rec.types())
	assert.Equal(t, []string{"mock/m"}, rec.chunks[0].(domain.Attempt).Candidates)
	assert.Len(t, mock.Calls(), 3)
	assert.True(t, mock.Calls()[1].Prompt.JSON)
}

func TestAttempt_DecomposeFailureIsAdvisory(t *testing.T) {
	mock := llm.NewMockClient().On("m",
		frags("a proof"),
		frags(classifyJSON),
		frags("no structure here"),
	)
	o, _ := newTestOrchestrator(mock)

	rec := &recorder{}
	res, err := o.Attempt(context.Background(), AttemptInput{Target: mockTarget(), Statement: "s"}, rec.emit)
	require.NoError(t, err)

	assert.Equal(t, "a proof", res.Text)
	assert.Empty(t, res.Sublemmas)
	assert.Equal(t, llmerr.Message(llmerr.KindOutputUnparsable), res.DecomposeError)

	types := rec.types()
	assert.Equal(t, srvErr, types[len(types)-1])
	// The advisory error comes after the answer's model.end.
	assert.Less(t, indexOf(types, end), len(types)-1)
	assert.Len(t, rec.serverErrors(), 1)
	assert.Equal(t, FlowDecompose, rec.serverErrors()[0].Detail)
}

func TestAttempt_ClassifyFailureDegradesToUnclear(t *testing.T) {
	mock := llm.NewMockClient().On("m",
		frags("a proof"),
		llm.MockResponse{Err: llmerr.Status{StatusCode: 408}},
		frags(decomposeJSON),
	)
	o, _ := newTestOrchestrator(mock)

	rec := &recorder{}
	res, err := o.Attempt(context.Background(), AttemptInput{Target: mockTarget(), Statement: "s"}, rec.emit)
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictUnclear, res.Classification.Verdict)
	assert.Equal(t, llmerr.Message(llmerr.KindTimeout), res.Classification.Reason)
	assert.Len(t, res.Sublemmas, 2)
	// Stage failures stay out of the chunk stream.
	assert.Empty(t, rec.serverErrors())
}

func TestAttempt_PrimaryExhausted(t *testing.T) {
	mock := llm.NewMockClient().On("m", llm.MockResponse{Err: errors.New("fetch failed")})
	o, _ := newTestOrchestrator(mock)

	rec := &recorder{}
	res, err := o.Attempt(context.Background(), AttemptInput{Target: mockTarget(), Statement: "s"}, rec.emit)
	assert.Nil(t, res)
	assert.Equal(t, llmerr.KindStreamInterrupted, llmerr.KindOf(err))
	assert.NotContains(t, rec.types(), end)
	assert.NotContains(t, rec.types(), domain.ChunkProgress)
}

func TestAttempt_Cancelled(t *testing.T) {
	mock := llm.NewMockClient().On("m", frags("a", "b", "c"))
	o, _ := newTestOrchestrator(mock)
	ctx, cancel := context.WithCancel(context.Background())

	rec := &recorder{}
	_, err := o.Attempt(ctx, AttemptInput{Target: mockTarget(), Statement: "s"}, func(c domain.Chunk) {
		rec.emit(c)
		if c.ChunkType() == delta {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.serverErrors())
	assert.NotContains(t, rec.types(), end)
}

func TestReview_ExhaustedIsUnclear(t *testing.T) {
	mock := llm.NewMockClient().On("m", llm.MockResponse{Err: llmerr.Status{StatusCode: 503, Message: "model overloaded"}})
	o, _ := newTestOrchestrator(mock)

	res, err := o.Review(context.Background(), ReviewInput{Target: mockTarget(), Proof: "p"}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewUnclear, res.Verdict)
	assert.Equal(t, llmerr.Message(llmerr.KindRateLimit), res.Summary)
	assert.NotNil(t, res.Issues)
}

func TestReview_OK(t *testing.T) {
	mock := llm.NewMockClient().On("m", frags(`Sure! {"verdict":"OK","summary":"sound"} Done.`))
	o, _ := newTestOrchestrator(mock)

	res, err := o.Review(context.Background(), ReviewInput{Target: mockTarget(), Proof: "p"}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewOK, res.Verdict)
	assert.Equal(t, []domain.ReviewIssue{}, res.Issues)
}

func TestRevise_MergesSingleStep(t *testing.T) {
	current := []domain.Sublemma{
		{Title: "Step 1: a", Statement: "a", Proof: "a"},
		{Title: "Step 2: b", Statement: "b", Proof: "b"},
		{Title: "Step 3: c", Statement: "c", Proof: "c"},
	}
	mock := llm.NewMockClient().On("m",
		frags(`{"revised_steps":[{"title":"Step 2: b","statement":"b","proof":"b, carefully"}],"explanation":"tightened"}`))
	o, _ := newTestOrchestrator(mock)

	res, err := o.Revise(context.Background(), ReviseInput{Target: mockTarget(), Steps: current, Instruction: "fix step 2"}, nil)
	require.NoError(t, err)
	require.Len(t, res.Merged, 3)
	assert.Equal(t, "b, carefully", res.Merged[1].Proof)
	require.Len(t, res.Changes, 1)
	assert.Equal(t, 1, res.Changes[0].Index)
	assert.Equal(t, "tightened", res.Explanation)

	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"revised_steps"`)
	assert.Contains(t, string(body), `"merged"`)
}

func TestRevise_UntitledStepReplacesLast(t *testing.T) {
	current := []domain.Sublemma{
		{Title: "Step 1: a", Statement: "a", Proof: "a"},
		{Title: "Step 2: b", Statement: "b", Proof: "b"},
		{Title: "Step 3: c", Statement: "c", Proof: "c"},
	}
	mock := llm.NewMockClient().On("m",
		frags(`{"revised_steps":[{"title":"","statement":"c'","proof":"c'"}]}`))
	o, _ := newTestOrchestrator(mock)

	res, err := o.Revise(context.Background(), ReviseInput{Target: mockTarget(), Steps: current, Instruction: "redo the end"}, nil)
	require.NoError(t, err)
	require.Len(t, res.Merged, 3)
	assert.Equal(t, "c'", res.Merged[2].Statement)
	assert.Equal(t, "b", res.Merged[1].Proof)
	require.Len(t, res.Changes, 1)
	assert.Equal(t, 2, res.Changes[0].Index)
}

func TestRevise_ExhaustedIsError(t *testing.T) {
	mock := llm.NewMockClient().On("m", frags(`{"revised_steps":[]}`))
	o, _ := newTestOrchestrator(mock)

	_, err := o.Revise(context.Background(), ReviseInput{Target: mockTarget(), Steps: []domain.Sublemma{{Title: "t", Statement: "s", Proof: "p"}}, Instruction: "x"}, nil)
	assert.Equal(t, llmerr.KindOutputUnparsable, llmerr.KindOf(err))
}

func TestChat(t *testing.T) {
	mock := llm.NewMockClient().On("m", frags("Hello", " there"))
	o, _ := newTestOrchestrator(mock)

	res, err := o.Chat(context.Background(), ChatInput{Target: mockTarget(), Messages: []domain.Message{{Role: "user", Content: "hi"}}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello there", res.Text)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.NotEmpty(t, calls[0].Prompt.System)
	assert.Equal(t, "hi", calls[0].Prompt.Messages[0].Content)
}

func TestChat_ExhaustedIsError(t *testing.T) {
	mock := llm.NewMockClient().On("m", llm.MockResponse{Err: errors.New("invalid api key")})
	o, _ := newTestOrchestrator(mock)

	_, err := o.Chat(context.Background(), ChatInput{Target: mockTarget(), Messages: []domain.Message{{Role: "user", Content: "hi"}}}, nil)
	require.Error(t, err)
	assert.Equal(t, llmerr.Message(llmerr.KindAuthInvalid), err.Error())
}

func TestExtract(t *testing.T) {
	mock := llm.NewMockClient().On("m",
		frags(`{"artifacts":[{"kind":"lemma","title":"AM-GM","content":"(a+b)/2 >= sqrt(ab)"}]}`))
	o, _ := newTestOrchestrator(mock)

	res, err := o.Extract(context.Background(), ExtractInput{Target: mockTarget(), Answer: "..."}, nil)
	require.NoError(t, err)
	require.Len(t, res.Artifacts, 1)
	assert.Equal(t, domain.ArtifactLemma, res.Artifacts[0].Kind)
}

func TestExtract_ExhaustedIsEmpty(t *testing.T) {
	mock := llm.NewMockClient().On("m", frags(`{"artifacts":[{"kind":"poem","title":"x","content":"y"}]}`))
	o, _ := newTestOrchestrator(mock)

	res, err := o.Extract(context.Background(), ExtractInput{Target: mockTarget(), Answer: "..."}, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.Artifact{}, res.Artifacts)
}

func TestValidate_Inputs(t *testing.T) {
	assert.Error(t, Validate(AttemptInput{}))
	assert.NoError(t, Validate(AttemptInput{Statement: "s"}))
	assert.Error(t, Validate(ChatInput{Messages: []domain.Message{{Role: "system", Content: "x"}}}))
	assert.Error(t, Validate(ReviseInput{Instruction: "x"}))
	assert.NoError(t, Validate(ReviseInput{
		Steps:       []domain.Sublemma{{Title: "Step 1", Statement: "a", Proof: "a"}, {Title: "Step 2", Statement: "b"}},
		Instruction: "x",
	}))
}

func indexOf(types []domain.ChunkType, t domain.ChunkType) int {
	for i, x := range types {
		if x == t {
			return i
		}
	}
	return -1
}
