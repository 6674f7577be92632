package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Harshitk-cp/proofstream/internal/api"
	"github.com/Harshitk-cp/proofstream/internal/client"
	"github.com/Harshitk-cp/proofstream/internal/config"
	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/Harshitk-cp/proofstream/internal/llm"
	"github.com/Harshitk-cp/proofstream/internal/orchestrator"
	"github.com/Harshitk-cp/proofstream/internal/service"
	"github.com/Harshitk-cp/proofstream/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, mock *llm.MockClient) *httptest.Server {
	t.Helper()
	cfg := config.DefaultProviderConfig()
	cfg.DefaultProvider = config.ProviderMock
	reg := prometheus.NewRegistry()
	orch := orchestrator.New(map[string]domain.StreamClient{config.ProviderMock: mock}, cfg, orchestrator.NewMetrics(reg), zap.NewNop())

	versions, err := store.NewMemoryProofVersionStore(4)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	app := api.NewApp(ctx, api.Options{
		Orchestrator:   orch,
		Proofs:         service.NewProofService(versions, zap.NewNop()),
		Registry:       reg,
		KeepAlive:      -1,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}, zap.NewNop())

	srv := httptest.NewServer(app.Router)
	t.Cleanup(srv.Close)
	return srv
}

func TestChatSession_SendThenExtract(t *testing.T) {
	mock := llm.NewMockClient().On(config.DefaultMockModel,
		llm.MockResponse{Fragments: []string{"A group ", "is a set."}},
		llm.MockResponse{Fragments: []string{`{"artifacts":[{"kind":"definition","title":"Group","content":"A set with an operation."}]}`}},
	)
	srv := newTestServer(t, mock)

	var out, errOut bytes.Buffer
	ctx := context.Background()
	s := newChatSession(ctx, client.New(srv.URL, ""), &out, &errOut)

	require.NoError(t, s.send(ctx, "what is a group?", true))
	s.wait()

	assert.Contains(t, out.String(), "A group is a set.")
	artifacts := s.Artifacts()
	require.Len(t, artifacts, 1)
	assert.Equal(t, domain.ArtifactDefinition, artifacts[0].Kind)
	assert.Len(t, s.history, 2)
	assert.Equal(t, "assistant", s.history[1].Role)
}

func TestRunStream_ReportsExhaustion(t *testing.T) {
	mock := llm.NewMockClient().On(config.DefaultMockModel,
		llm.MockResponse{Err: context.DeadlineExceeded},
	)
	srv := newTestServer(t, mock)

	var out, errOut bytes.Buffer
	in := orchestrator.ChatInput{Messages: []domain.Message{{Role: "user", Content: "hi"}}}
	_, err := runStream(context.Background(), client.New(srv.URL, ""), client.PathChat, in, nil, &out, &errOut, false)
	require.Error(t, err)
	assert.True(t, strings.Contains(errOut.String(), "!"), "server-error is rendered: %q", errOut.String())
}

func TestPrintChanges(t *testing.T) {
	var buf bytes.Buffer
	printChanges(&buf, []domain.Change{
		{Index: 1, Kind: domain.ChangeModify, Fields: domain.ChangedFields{Proof: true}},
		{Index: 2, Kind: domain.ChangeAdd},
	})
	assert.Equal(t, "step 2: modify (proof)\nstep 3: add\n", buf.String())

	buf.Reset()
	printChanges(&buf, nil)
	assert.Equal(t, "no changes\n", buf.String())
}
