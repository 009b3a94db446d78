// Package notify carries transient user-visible notices (toasts).
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

type Notice struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Variant     Variant   `json:"variant"`
	At          time.Time `json:"at"`
}

// Notifier receives notices.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Error builds a destructive notice.
func Error(description string) Notice {
	return Notice{Title: "Error", Description: description, Variant: VariantDestructive}
}

const defaultCapacity = 50

// Board keeps the most recent notices until the front end drains them.
type Board struct {
	mu       sync.Mutex
	capacity int
	pending  []Notice
}

func NewBoard(capacity int) *Board {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Board{capacity: capacity}
}

func (b *Board) Notify(n Notice) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.At.IsZero() {
		n.At = time.Now().UTC()
	}
	if n.Variant == "" {
		n.Variant = VariantDefault
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, n)
	if over := len(b.pending) - b.capacity; over > 0 {
		b.pending = append([]Notice(nil), b.pending[over:]...)
	}
}

// Drain returns pending notices oldest first and forgets them.
func (b *Board) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	if out == nil {
		return []Notice{}
	}
	return out
}

func (b *Board) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
