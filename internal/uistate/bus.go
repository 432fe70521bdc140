// Package uistate carries the loading and toast signals that screens share.
// Components receive a Bus explicitly instead of reaching for global state.
package uistate

import "sync"

type Signal interface {
	signal()
}

// Loading reports that Source started or finished a network call.
type Loading struct {
	Source string
	Active bool
}

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

type Toast struct {
	Kind    ToastKind
	Message string
}

func (Loading) signal() {}
func (Toast) signal()   {}

type Publisher interface {
	Publish(s Signal)
}

// Bus fans signals out to subscribers in subscription order.
// Subscribers are called synchronously and must not block.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Signal)
	order  []int
}

var _ = Publisher(&Bus{})

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Signal))}
}

// Subscribe registers fn and returns a function removing it again.
func (b *Bus) Subscribe(fn func(Signal)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			delete(b.subs, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Bus) Publish(s Signal) {
	b.mu.RLock()
	fns := make([]func(Signal), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.subs[id])
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(s)
	}
}

type discard struct{}

func (discard) Publish(Signal) {}

// Discard drops every signal.
var Discard Publisher = discard{}
