package sse

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/Harshitk-cp/proofstream/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_FrameFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := NewWriter(rec)
	require.NoError(t, err)

	require.NoError(t, w.WriteChunk(domain.ModelDelta{Text: "a\nb"}))
	require.NoError(t, w.WriteKeepAlive())
	require.NoError(t, w.WriteChunk(domain.ClassifyStart{}))

	want := "event: model.delta\ndata: {\"text\":\"a\\nb\"}\n\n" +
		":keepalive\n\n" +
		"event: classify.start\ndata: {}\n\n"
	assert.Equal(t, want, rec.Body.String())
	assert.True(t, rec.Flushed)

	w.Close()
	assert.ErrorIs(t, w.WriteChunk(domain.ModelDelta{Text: "late"}), ErrClosed)
	assert.ErrorIs(t, w.WriteKeepAlive(), ErrClosed)
}

func TestEncodeDecode_AllChunkTypes(t *testing.T) {
	chunks := []domain.Chunk{
		domain.ModelStart{Provider: "openai", Model: "gpt-4o", TS: 1700000000000},
		domain.ModelDelta{Text: "Step 1"},
		domain.ModelEnd{DurationMs: 42, Length: 6},
		domain.ClassifyStart{},
		domain.ClassifyResult{Classification: domain.Classification{Verdict: domain.VerdictProved, Reason: "ok"}},
		domain.ClassifyEnd{DurationMs: 7},
		domain.DecomposeStart{},
		domain.DecomposeResult{Sublemmas: []domain.Sublemma{{Title: "Step 1", Statement: "s", Proof: "p"}}},
		domain.Progress{Stage: "classify"},
		domain.Attempt{Candidates: []string{"openai/gpt-4o"}},
		domain.ServerError{Error: "busy", Code: "MODEL_RATE_LIMIT"},
		domain.Done{Result: []byte(`{"verdict":"OK"}`)},
	}

	for _, c := range chunks {
		event, data, err := Encode(c)
		require.NoError(t, err)
		assert.Equal(t, string(c.ChunkType()), event)

		got, err := Decode(event, data)
		require.NoError(t, err, event)
		assert.Equal(t, c, got, event)
	}
}

func TestEncode_WireFieldNames(t *testing.T) {
	_, data, err := Encode(domain.ModelEnd{DurationMs: 12, Length: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"durationMs":12,"length":3}`, string(data))

	_, data, err = Encode(domain.ModelStart{Provider: "googleai", Model: "gemini-2.5-flash", TS: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `{"provider":"googleai","model":"gemini-2.5-flash","ts":5}`, string(data))
}

func TestDecode_UnknownEvent(t *testing.T) {
	_, err := Decode("model.pause", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = Decode("message", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestReader_Frames(t *testing.T) {
	stream := ":keepalive\n\n" +
		"event: model.delta\r\ndata: {\"text\":\"hi\"}\r\n\r\n" +
		"event: done\ndata: {\"a\":1,\ndata: \"b\":2}\nid: 7\n\n" +
		"event: model.delta\ndata: {\"text\":\"partial\"}\n"

	r := NewReader(strings.NewReader(stream))

	f, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, Frame{Event: "model.delta", Data: `{"text":"hi"}`}, f)

	f, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, Frame{Event: "done", Data: "{\"a\":1,\n\"b\":2}", ID: "7"}, f)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_OneByteReads(t *testing.T) {
	var sb strings.Builder
	for _, text := range []string{"Step ", "1: ", "é∑"} {
		_, data, err := Encode(domain.ModelDelta{Text: text})
		require.NoError(t, err)
		sb.WriteString("event: model.delta\ndata: " + string(data) + "\n\n")
	}

	r := NewReader(iotest.OneByteReader(strings.NewReader(sb.String())))
	var got []string
	for {
		f, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		c, err := Decode(f.Event, []byte(f.Data))
		require.NoError(t, err)
		got = append(got, c.(domain.ModelDelta).Text)
	}
	assert.Equal(t, []string{"Step ", "1: ", "é∑"}, got)
}

func TestConsume_OrderAndEOF(t *testing.T) {
	body := io.NopCloser(strings.NewReader(
		"event: model.start\ndata: {\"provider\":\"mock\",\"model\":\"m\",\"ts\":1}\n\n" +
			":keepalive\n\n" +
			"event: model.delta\ndata: {\"text\":\"x\"}\n\n" +
			"event: model.end\ndata: {\"durationMs\":1,\"length\":1}\n\n"))

	var types []domain.ChunkType
	err := Consume(context.Background(), body, func(c domain.Chunk) error {
		types = append(types, c.ChunkType())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.ChunkType{domain.ChunkModelStart, domain.ChunkModelDelta, domain.ChunkModelEnd}, types)
}

func TestConsume_UnknownEventIsError(t *testing.T) {
	body := io.NopCloser(strings.NewReader("event: bogus\ndata: {}\n\n"))
	err := Consume(context.Background(), body, func(domain.Chunk) error { return nil })
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestConsume_CancelReturnsNil(t *testing.T) {
	pr, pw := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	var seen atomic.Int32
	go func() {
		done <- Consume(ctx, pr, func(domain.Chunk) error {
			seen.Add(1)
			return nil
		})
	}()

	_, err := io.WriteString(pw, "event: model.delta\ndata: {\"text\":\"a\"}\n\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return seen.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Consume did not return after cancel")
	}
	_ = pw.Close()
}

func TestServe_StreamsChunksAndHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	err := Serve(context.Background(), rec, Options{KeepAlive: -1}, func(ctx context.Context, emit func(domain.Chunk)) error {
		emit(domain.ModelStart{Provider: "mock", Model: "m", TS: 1})
		emit(domain.ModelDelta{Text: "hi"})
		emit(domain.ModelEnd{DurationMs: 1, Length: 2})
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache, no-transform", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rec.Header().Get("Connection"))

	var types []domain.ChunkType
	require.NoError(t, Consume(context.Background(), io.NopCloser(rec.Body), func(c domain.Chunk) error {
		types = append(types, c.ChunkType())
		return nil
	}))
	assert.Equal(t, []domain.ChunkType{domain.ChunkModelStart, domain.ChunkModelDelta, domain.ChunkModelEnd}, types)
}

// lockedRecorder guards a ResponseRecorder so a test can read the body while
// Serve is still writing.
type lockedRecorder struct {
	mu  sync.Mutex
	rec *httptest.ResponseRecorder
}

func (l *lockedRecorder) Header() http.Header { return l.rec.Header() }

func (l *lockedRecorder) WriteHeader(code int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.WriteHeader(code)
}

func (l *lockedRecorder) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.Write(b)
}

func (l *lockedRecorder) Flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rec.Flush()
}

func (l *lockedRecorder) body() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rec.Body.String()
}

func TestServe_KeepAliveStopsWithProducer(t *testing.T) {
	w := &lockedRecorder{rec: httptest.NewRecorder()}
	var keepalives atomic.Int32

	err := Serve(context.Background(), w, Options{
		KeepAlive:   5 * time.Millisecond,
		OnKeepAlive: func() { keepalives.Add(1) },
	}, func(ctx context.Context, emit func(domain.Chunk)) error {
		time.Sleep(40 * time.Millisecond)
		emit(domain.ModelDelta{Text: "late"})
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, w.body(), ":keepalive\n\n")

	after := keepalives.Load()
	bodyAfter := w.body()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, keepalives.Load(), "keep-alive ticker still running")
	assert.Equal(t, bodyAfter, w.body(), "writes after Serve returned")
}

func TestServe_CancelStopsEmission(t *testing.T) {
	w := &lockedRecorder{rec: httptest.NewRecorder()}
	ctx, cancel := context.WithCancel(context.Background())

	err := Serve(ctx, w, Options{KeepAlive: -1}, func(ctx context.Context, emit func(domain.Chunk)) error {
		emit(domain.ModelDelta{Text: "one"})
		cancel()
		emit(domain.ModelDelta{Text: "two"})
		return ctx.Err()
	})
	require.NoError(t, err)
	assert.Contains(t, w.body(), "one")
	assert.NotContains(t, w.body(), "two")
}

type failingWriter struct {
	header http.Header
	writes atomic.Int32
}

func (f *failingWriter) Header() http.Header { return f.header }
func (f *failingWriter) WriteHeader(int)     {}
func (f *failingWriter) Flush()              {}
func (f *failingWriter) Write(b []byte) (int, error) {
	f.writes.Add(1)
	return 0, errors.New("broken pipe")
}

func TestServe_WriteFailureCancelsProducer(t *testing.T) {
	fw := &failingWriter{header: http.Header{}}

	err := Serve(context.Background(), fw, Options{KeepAlive: -1}, func(ctx context.Context, emit func(domain.Chunk)) error {
		emit(domain.ModelDelta{Text: "x"})
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
			return errors.New("producer not cancelled")
		}
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
	assert.Equal(t, int32(1), fw.writes.Load())
}
