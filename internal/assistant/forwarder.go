// Package assistant relays chat messages to the backend AI endpoints and
// keeps the in-memory transcript of the conversation.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/ecotour/internal/api"
	"github.com/and161185/ecotour/internal/errs"
	"github.com/and161185/ecotour/internal/model"
)

// Backend is the subset of the AI client the forwarder uses.
type Backend interface {
	Ask(ctx context.Context, question string, history []api.Turn) (*api.Answer, error)
	Chat(ctx context.Context, message string, history []api.Turn) (*api.Answer, error)
	Reset(ctx context.Context) error
}

var _ Backend = (*api.AI)(nil)

// Mode selects the backend endpoint.
type Mode string

const (
	ModeAsk  Mode = "ask"
	ModeChat Mode = "chat"
)

// Options configure a Forwarder.
type Options struct {
	Mode         Mode
	SendHistory  bool // send prior turns as context
	HistoryLimit int  // most recent turns sent; 0 means all
	Now          func() time.Time
}

// Reply is the outcome of Send. When the backend failed, Fallback is set,
// Err holds the cause, and Message carries the user-facing text instead.
type Reply struct {
	Message  model.ChatMessage
	Results  json.RawMessage
	Fallback bool
	Err      error
}

// Forwarder is safe for concurrent use.
type Forwarder struct {
	backend Backend
	log     *zap.Logger
	opts    Options

	mu         sync.Mutex
	transcript []model.ChatMessage
	gen        uint64 // bumped by Reset
}

// New returns a Forwarder with an empty transcript.
func New(b Backend, log *zap.Logger, opts Options) *Forwarder {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = ModeChat
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Forwarder{backend: b, log: log, opts: opts}
}

func (f *Forwarder) message(role model.Role, content string) model.ChatMessage {
	id, _ := uuid.NewV4()
	return model.ChatMessage{ID: id.String(), Role: role, Content: content, Timestamp: f.opts.Now()}
}

// history returns the turns before the last one, trimmed to the limit.
// Callers hold f.mu.
func (f *Forwarder) history() []api.Turn {
	if !f.opts.SendHistory {
		return nil
	}
	prior := f.transcript[:len(f.transcript)-1]
	if n := f.opts.HistoryLimit; n > 0 && len(prior) > n {
		prior = prior[len(prior)-n:]
	}
	out := make([]api.Turn, 0, len(prior))
	for _, m := range prior {
		out = append(out, api.Turn{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// Send forwards text and records both turns. Backend failures never
// surface as errors: the reply then carries a fallback message. Only an
// empty message is rejected, before any network call.
func (f *Forwarder) Send(ctx context.Context, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, errs.NewValidation("message", "required")
	}

	f.mu.Lock()
	f.transcript = append(f.transcript, f.message(model.RoleUser, text))
	hist := f.history()
	gen := f.gen
	f.mu.Unlock()

	var ans *api.Answer
	var err error
	if f.opts.Mode == ModeAsk {
		ans, err = f.backend.Ask(ctx, text, hist)
	} else {
		ans, err = f.backend.Chat(ctx, text, hist)
	}

	if err == nil && (ans == nil || ans.Validate() != nil) {
		err = fmt.Errorf("assistant %s: %w: empty answer", f.opts.Mode, errs.ErrBadResponse)
	}

	var reply Reply
	if err != nil {
		f.log.Warn("assistant request failed", zap.String("mode", string(f.opts.Mode)), zap.Error(err))
		reply = Reply{Message: f.message(model.RoleAssistant, errs.UserMessage(err)), Fallback: true, Err: err}
	} else {
		reply = Reply{Message: f.message(model.RoleAssistant, ans.Response), Results: ans.Results}
	}

	f.mu.Lock()
	if f.gen == gen {
		f.transcript = append(f.transcript, reply.Message)
	}
	f.mu.Unlock()
	return reply, nil
}

// Reset empties the local transcript, then asks the backend to drop its
// context. The backend outcome is only logged.
func (f *Forwarder) Reset(ctx context.Context) {
	f.mu.Lock()
	f.transcript = nil
	f.gen++
	f.mu.Unlock()

	if err := f.backend.Reset(ctx); err != nil {
		f.log.Warn("assistant reset failed", zap.Error(err))
	}
}

// Transcript returns a copy of the conversation so far.
func (f *Forwarder) Transcript() []model.ChatMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.ChatMessage(nil), f.transcript...)
}
