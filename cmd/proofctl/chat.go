package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/Harshitk-cp/proofstream/internal/client"
	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/orchestrator"
	"github.com/spf13/cobra"
)

var chatNoExtract bool

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat about a proof, extracting artifacts in the background",
	Long: `Chat with the model. With a message argument, send it and exit once the
answer and its artifacts arrive. Without one, read messages from stdin, one
per line.

After each answer, definitions, lemmas and theorems are extracted in the
background. Sending a new message cancels the previous answer and extraction;
a late extraction for an older answer is discarded.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatNoExtract, "no-extract", false, "Skip artifact extraction")
	rootCmd.AddCommand(chatCmd)
}

// chatSession keeps the conversation and the artifacts of its latest answer.
type chatSession struct {
	c      *client.Client
	d      *client.Dispatcher
	out    io.Writer
	errOut io.Writer

	history []domain.Message
	wg      sync.WaitGroup

	mu        sync.Mutex
	artifacts []domain.Artifact
}

func newChatSession(ctx context.Context, c *client.Client, out, errOut io.Writer) *chatSession {
	return &chatSession{c: c, d: client.NewDispatcher(ctx), out: out, errOut: errOut}
}

// send streams the answer to msg and starts extraction when it completes.
func (s *chatSession) send(ctx context.Context, msg string, extract bool) error {
	turn, err := s.d.Begin(ctx, client.ChannelChat)
	if err != nil {
		return err
	}
	defer turn.End()

	messages := append(append([]domain.Message(nil), s.history...), domain.Message{Role: "user", Content: msg})
	in := orchestrator.ChatInput{Target: target(), Messages: messages}

	var res domain.ChatResult
	if _, err := runStream(turn.Ctx, s.c, client.PathChat, in, &res, s.out, s.errOut, false); err != nil {
		return err
	}

	s.history = append(messages, domain.Message{Role: "assistant", Content: res.Text})
	if extract {
		s.extract(res.Text)
	}
	return nil
}

// extract runs in the background; its result is applied only if no newer
// extraction has started meanwhile.
func (s *chatSession) extract(answer string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		turn, err := s.d.Begin(context.Background(), client.ChannelExtraction)
		if err != nil {
			return
		}
		defer turn.End()

		in := orchestrator.ExtractInput{Target: target(), Answer: answer}
		var set domain.ArtifactSet
		if _, err := runStream(turn.Ctx, s.c, client.PathExtract, in, &set, io.Discard, io.Discard, true); err != nil {
			if !errors.Is(err, errCancelled) {
				fmt.Fprintf(s.errOut, "extraction failed: %v\n", err)
			}
			return
		}

		turn.ApplyIfCurrent(func() {
			s.mu.Lock()
			s.artifacts = set.Artifacts
			s.mu.Unlock()
			for _, a := range set.Artifacts {
				fmt.Fprintf(s.errOut, "  [%s] %s\n", a.Kind, a.Title)
			}
		})
	}()
}

// Artifacts returns those extracted from the latest answer.
func (s *chatSession) Artifacts() []domain.Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Artifact(nil), s.artifacts...)
}

func (s *chatSession) wait() {
	s.wg.Wait()
}

func (s *chatSession) close() {
	s.d.CancelAll()
	s.wg.Wait()
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s := newChatSession(ctx, newClient(), cmd.OutOrStdout(), cmd.ErrOrStderr())

	if len(args) > 0 {
		if err := s.send(ctx, strings.Join(args, " "), !chatNoExtract); err != nil {
			s.close()
			return err
		}
		s.wait()
		if jsonOut {
			return printJSON(cmd.OutOrStdout(), domain.ArtifactSet{Artifacts: s.Artifacts()})
		}
		return nil
	}
	defer s.close()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(cmd.ErrOrStderr(), "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		msg := strings.TrimSpace(scanner.Text())
		if msg == "" {
			continue
		}
		if err := s.send(ctx, msg, !chatNoExtract); err != nil {
			if errors.Is(err, errCancelled) {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
		}
	}
}
