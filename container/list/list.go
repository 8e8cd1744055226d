// Package list implements doubly and singly linked lists whose frames are
// allocated from a pktmem pool.
package list

import (
	"iter"

	"github.com/pavanmanishd/pktmem"
)

// Frame is an element of a List.
type Frame[T any] struct {
	next, prev *Frame[T]
	list       *List[T]

	Value T
}

// Next returns the following frame or nil.
func (f *Frame[T]) Next() *Frame[T] { return f.next }

// Prev returns the preceding frame or nil.
func (f *Frame[T]) Prev() *Frame[T] { return f.prev }

// List is a doubly linked list. The zero value is not usable; call New.
type List[T any] struct {
	frames     *pktmem.Slab[Frame[T]]
	head, tail *Frame[T]
	n          int
}

// New returns an empty list allocated from p.
func New[T any](p *pktmem.Pool) *List[T] {
	l := pktmem.New[List[T]](p)
	l.frames = pktmem.SlabOf[Frame[T]](p)
	return l
}

// Len returns the number of elements.
func (l *List[T]) Len() int { return l.n }

// Front returns the first frame or nil.
func (l *List[T]) Front() *Frame[T] { return l.head }

// Back returns the last frame or nil.
func (l *List[T]) Back() *Frame[T] { return l.tail }

func (l *List[T]) frame(v T) *Frame[T] {
	f := l.frames.New()
	f.Value = v
	f.list = l
	l.n++
	return f
}

// PushFront prepends v.
func (l *List[T]) PushFront(v T) *Frame[T] {
	f := l.frame(v)
	f.next = l.head
	if l.head != nil {
		l.head.prev = f
	} else {
		l.tail = f
	}
	l.head = f
	return f
}

// PushBack appends v.
func (l *List[T]) PushBack(v T) *Frame[T] {
	f := l.frame(v)
	f.prev = l.tail
	if l.tail != nil {
		l.tail.next = f
	} else {
		l.head = f
	}
	l.tail = f
	return f
}

// InsertBefore inserts v immediately before mark.
func (l *List[T]) InsertBefore(v T, mark *Frame[T]) *Frame[T] {
	if mark == nil || mark.prev == nil {
		return l.PushFront(v)
	}
	f := l.frame(v)
	f.prev, f.next = mark.prev, mark
	mark.prev.next = f
	mark.prev = f
	return f
}

// InsertAfter inserts v immediately after mark.
func (l *List[T]) InsertAfter(v T, mark *Frame[T]) *Frame[T] {
	if mark == nil || mark.next == nil {
		return l.PushBack(v)
	}
	f := l.frame(v)
	f.prev, f.next = mark, mark.next
	mark.next.prev = f
	mark.next = f
	return f
}

// InsertSorted inserts v after every element that does not compare greater,
// keeping a list sorted by cmp sorted and stable.
func (l *List[T]) InsertSorted(v T, cmp func(a, b T) int) *Frame[T] {
	for f := l.tail; f != nil; f = f.prev {
		if cmp(f.Value, v) <= 0 {
			return l.InsertAfter(v, f)
		}
	}
	return l.PushFront(v)
}

// Remove unlinks f and returns its value. The frame must not be used again.
func (l *List[T]) Remove(f *Frame[T]) T {
	if f.list != l {
		panic("list: frame does not belong to this list")
	}
	if f.prev != nil {
		f.prev.next = f.next
	} else {
		l.head = f.next
	}
	if f.next != nil {
		f.next.prev = f.prev
	} else {
		l.tail = f.prev
	}
	v := f.Value
	f.next, f.prev, f.list = nil, nil, nil
	l.n--
	l.frames.Free(f)
	return v
}

// Find returns the first frame whose value satisfies match.
func (l *List[T]) Find(match func(T) bool) *Frame[T] {
	for f := l.head; f != nil; f = f.next {
		if match(f.Value) {
			return f
		}
	}
	return nil
}

// RemoveFunc removes the first element satisfying match.
func (l *List[T]) RemoveFunc(match func(T) bool) bool {
	if f := l.Find(match); f != nil {
		l.Remove(f)
		return true
	}
	return false
}

// Clear removes every element.
func (l *List[T]) Clear() {
	for l.head != nil {
		l.Remove(l.head)
	}
}

// All yields the values front to back. Removing the current frame while
// iterating is allowed.
func (l *List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for f := l.head; f != nil; {
			next := f.next
			if !yield(f.Value) {
				return
			}
			f = next
		}
	}
}

// Backward yields the values back to front.
func (l *List[T]) Backward() iter.Seq[T] {
	return func(yield func(T) bool) {
		for f := l.tail; f != nil; {
			prev := f.prev
			if !yield(f.Value) {
				return
			}
			f = prev
		}
	}
}
