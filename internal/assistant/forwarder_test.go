package assistant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/ecotour/internal/api"
	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/httpclient"
	"github.com/and161185/ecotour/internal/model"
)

type fakeBackend struct {
	mu       sync.Mutex
	answer   *api.Answer
	err      error
	resetErr error
	calls    []string
	history  [][]api.Turn
	resets   int
}

var _ Backend = (*fakeBackend)(nil)

func (f *fakeBackend) record(kind string, h []api.Turn) (*api.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
	f.history = append(f.history, h)
	return f.answer, f.err
}

func (f *fakeBackend) Ask(_ context.Context, _ string, h []api.Turn) (*api.Answer, error) {
	return f.record("ask", h)
}

func (f *fakeBackend) Chat(_ context.Context, _ string, h []api.Turn) (*api.Answer, error) {
	return f.record("chat", h)
}

func (f *fakeBackend) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return f.resetErr
}

func TestSend_RecordsBothTurns(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{answer: &api.Answer{Response: "Le sentier des crêtes."}}
	f := New(b, zaptest.NewLogger(t), Options{Mode: ModeAsk})

	r, err := f.Send(context.Background(), "  Une rando facile ?  ")
	require.NoError(t, err)
	assert.False(t, r.Fallback)
	assert.Equal(t, "Le sentier des crêtes.", r.Message.Content)
	assert.Equal(t, []string{"ask"}, b.calls)

	tr := f.Transcript()
	require.Len(t, tr, 2)
	assert.Equal(t, model.RoleUser, tr[0].Role)
	assert.Equal(t, "Une rando facile ?", tr[0].Content)
	assert.Equal(t, model.RoleAssistant, tr[1].Role)
	assert.NotEqual(t, tr[0].ID, tr[1].ID)
}

func TestSend_EmptyMessageRejected(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{}
	f := New(b, nil, Options{})
	_, err := f.Send(context.Background(), "   ")
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Empty(t, b.calls)
	assert.Empty(t, f.Transcript())
}

func TestSend_BackendFailureYieldsFallback(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{err: &errs.RequestError{Status: 0, Err: errors.New("dial tcp: refused")}}
	f := New(b, zaptest.NewLogger(t), Options{})

	r, err := f.Send(context.Background(), "bonjour")
	require.NoError(t, err)
	assert.True(t, r.Fallback)
	require.ErrorIs(t, r.Err, errs.ErrNetwork)
	assert.Equal(t, errs.MsgNetwork, r.Message.Content)
	assert.Len(t, f.Transcript(), 2, "conversation is not stuck")

	b.err = nil
	b.answer = &api.Answer{Response: "Bonjour !"}
	r, err = f.Send(context.Background(), "bonjour ?")
	require.NoError(t, err)
	assert.False(t, r.Fallback)
	assert.Len(t, f.Transcript(), 4)
}

func TestSend_EmptyAnswerYieldsFallback(t *testing.T) {
	t.Parallel()

	for name, ans := range map[string]*api.Answer{"nil": nil, "blank": {}} {
		t.Run(name, func(t *testing.T) {
			b := &fakeBackend{answer: ans}
			f := New(b, zaptest.NewLogger(t), Options{})

			r, err := f.Send(context.Background(), "bonjour")
			require.NoError(t, err)
			assert.True(t, r.Fallback)
			require.ErrorIs(t, r.Err, errs.ErrBadResponse)
			assert.Equal(t, errs.UserMessage(r.Err), r.Message.Content)
			assert.Len(t, f.Transcript(), 2)
		})
	}
}

func TestSend_EmptyBodyFromServerYieldsFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	hc, err := httpclient.New(httpclient.Config{BaseURL: srv.URL, Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)

	f := New(api.New(hc).AI, zaptest.NewLogger(t), Options{Mode: ModeAsk})
	r, err := f.Send(context.Background(), "Une rando facile ?")
	require.NoError(t, err)
	assert.True(t, r.Fallback)
	require.ErrorIs(t, r.Err, errs.ErrBadResponse)
	assert.NotEmpty(t, r.Message.Content)
	assert.Len(t, f.Transcript(), 2)
}

func TestSend_History(t *testing.T) {
	t.Parallel()

	b := &fakeBackend{answer: &api.Answer{Response: "ok"}}
	f := New(b, nil, Options{Mode: ModeChat, SendHistory: true, HistoryLimit: 3})
	ctx := context.Background()

	for _, m := range []string{"a", "b", "c"} {
		_, err := f.Send(ctx, m)
		require.NoError(t, err)
	}
	require.Len(t, b.history, 3)
	assert.Empty(t, b.history[0])
	assert.Equal(t, []api.Turn{{Role: "user", Content: "a"}, {Role: "assistant", Content: "ok"}}, b.history[1])
	assert.Len(t, b.history[2], 3)
	assert.Equal(t, "ok", b.history[2][0].Content)

	nohist := &fakeBackend{answer: &api.Answer{Response: "ok"}}
	g := New(nohist, nil, Options{})
	_, _ = g.Send(ctx, "a")
	_, _ = g.Send(ctx, "b")
	assert.Nil(t, nohist.history[1])
}

func TestReset_AlwaysClearsTranscript(t *testing.T) {
	t.Parallel()

	for _, resetErr := range []error{nil, errors.New("backend down")} {
		b := &fakeBackend{answer: &api.Answer{Response: "ok"}, resetErr: resetErr}
		f := New(b, zaptest.NewLogger(t), Options{})
		_, err := f.Send(context.Background(), "hello")
		require.NoError(t, err)
		require.NotEmpty(t, f.Transcript())

		f.Reset(context.Background())
		assert.Empty(t, f.Transcript())
		assert.Equal(t, 1, b.resets)
	}
}

// blockingBackend holds Chat until released so Reset can run in between.
type blockingBackend struct {
	fakeBackend
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBackend) Chat(context.Context, string, []api.Turn) (*api.Answer, error) {
	close(b.entered)
	<-b.release
	return &api.Answer{Response: "late"}, nil
}

func TestReset_DropsReplyInFlight(t *testing.T) {
	t.Parallel()

	b := &blockingBackend{entered: make(chan struct{}), release: make(chan struct{})}
	f := New(b, nil, Options{})

	done := make(chan Reply, 1)
	go func() {
		r, _ := f.Send(context.Background(), "hello")
		done <- r
	}()
	<-b.entered
	f.Reset(context.Background())
	close(b.release)

	r := <-done
	assert.Equal(t, "late", r.Message.Content)
	assert.Empty(t, f.Transcript())
}
