// Package stack implements a LIFO stack on a pool-backed list.
package stack

import (
	"iter"

	"github.com/pavanmanishd/pktmem"
	"github.com/pavanmanishd/pktmem/container/list"
)

// Stack is a last-in first-out stack.
type Stack[T any] struct {
	l *list.List[T]
}

// New returns an empty stack allocated from p.
func New[T any](p *pktmem.Pool) *Stack[T] {
	s := pktmem.New[Stack[T]](p)
	s.l = list.New[T](p)
	return s
}

// Push puts v on top.
func (s *Stack[T]) Push(v T) { s.l.PushFront(v) }

// Pop removes and returns the top value.
func (s *Stack[T]) Pop() (T, bool) {
	f := s.l.Front()
	if f == nil {
		var zero T
		return zero, false
	}
	return s.l.Remove(f), true
}

// Peek returns the top value without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	if f := s.l.Front(); f != nil {
		return f.Value, true
	}
	var zero T
	return zero, false
}

func (s *Stack[T]) Len() int { return s.l.Len() }

// All yields values from top to bottom.
func (s *Stack[T]) All() iter.Seq[T] { return s.l.All() }
