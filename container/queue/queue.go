// Package queue implements a FIFO queue on a pool-backed list.
package queue

import (
	"iter"

	"github.com/pavanmanishd/pktmem"
	"github.com/pavanmanishd/pktmem/container/list"
)

// Queue is a first-in first-out queue.
type Queue[T any] struct {
	l *list.List[T]
}

// New returns an empty queue allocated from p.
func New[T any](p *pktmem.Pool) *Queue[T] {
	q := pktmem.New[Queue[T]](p)
	q.l = list.New[T](p)
	return q
}

// Push adds v at the back.
func (q *Queue[T]) Push(v T) { q.l.PushBack(v) }

// Pop removes and returns the front value.
func (q *Queue[T]) Pop() (T, bool) {
	f := q.l.Front()
	if f == nil {
		var zero T
		return zero, false
	}
	return q.l.Remove(f), true
}

// Peek returns the front value without removing it.
func (q *Queue[T]) Peek() (T, bool) {
	if f := q.l.Front(); f != nil {
		return f.Value, true
	}
	var zero T
	return zero, false
}

func (q *Queue[T]) Len() int { return q.l.Len() }

// All yields the queued values front to back.
func (q *Queue[T]) All() iter.Seq[T] { return q.l.All() }
