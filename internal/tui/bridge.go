package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/openkcm/storefront-client/internal/uistate"
)

// SignalMsg carries a uistate signal into the program.
type SignalMsg struct {
	Signal uistate.Signal
}

const bridgeQueueSize = 64

// Bridge forwards messages from background components to a running program.
// Send never blocks, so it is safe to call from within Update. Messages are
// delivered in order; when the queue is full the newest message is dropped.
type Bridge struct {
	queue chan tea.Msg
}

func NewBridge() *Bridge {
	return &Bridge{queue: make(chan tea.Msg, bridgeQueueSize)}
}

func (b *Bridge) Send(msg tea.Msg) {
	select {
	case b.queue <- msg:
	default:
	}
}

// Run delivers queued messages to p until ctx is done.
func (b *Bridge) Run(ctx context.Context, p *tea.Program) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.queue:
			p.Send(msg)
		}
	}
}

// Signals forwards every signal published on bus until the returned function is called.
func (b *Bridge) Signals(bus *uistate.Bus) (unsubscribe func()) {
	return bus.Subscribe(func(s uistate.Signal) {
		b.Send(SignalMsg{Signal: s})
	})
}

// status renders the latest toast and whether any call is outstanding.
type status struct {
	toast   uistate.Toast
	loading map[string]bool
}

func (s *status) apply(sig uistate.Signal) {
	switch sig := sig.(type) {
	case uistate.Toast:
		s.toast = sig
	case uistate.Loading:
		if s.loading == nil {
			s.loading = make(map[string]bool)
		}
		if sig.Active {
			s.loading[sig.Source] = true
		} else {
			delete(s.loading, sig.Source)
		}
	}
}

func (s status) busy() bool {
	return len(s.loading) > 0
}

func (s status) view(styles Styles) string {
	switch s.toast.Kind {
	case uistate.ToastSuccess:
		return styles.Success.Render(s.toast.Message)
	case uistate.ToastError:
		return styles.Error.Render(s.toast.Message)
	case uistate.ToastInfo:
		return styles.Info.Render(s.toast.Message)
	}

	return ""
}
