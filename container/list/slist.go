package list

import (
	"iter"

	"github.com/pavanmanishd/pktmem"
)

// SFrame is an element of an SList.
type SFrame[T any] struct {
	next  *SFrame[T]
	Value T
}

// Next returns the following frame or nil.
func (f *SFrame[T]) Next() *SFrame[T] { return f.next }

// SList is a singly linked list with O(1) append.
type SList[T any] struct {
	frames     *pktmem.Slab[SFrame[T]]
	head, tail *SFrame[T]
	n          int
}

// NewSList returns an empty singly linked list allocated from p.
func NewSList[T any](p *pktmem.Pool) *SList[T] {
	l := pktmem.New[SList[T]](p)
	l.frames = pktmem.SlabOf[SFrame[T]](p)
	return l
}

func (l *SList[T]) Len() int           { return l.n }
func (l *SList[T]) Front() *SFrame[T] { return l.head }

func (l *SList[T]) PushFront(v T) {
	f := l.frames.New()
	f.Value = v
	f.next = l.head
	l.head = f
	if l.tail == nil {
		l.tail = f
	}
	l.n++
}

func (l *SList[T]) PushBack(v T) {
	f := l.frames.New()
	f.Value = v
	if l.tail != nil {
		l.tail.next = f
	} else {
		l.head = f
	}
	l.tail = f
	l.n++
}

// PopFront removes and returns the first value.
func (l *SList[T]) PopFront() (T, bool) {
	f := l.head
	if f == nil {
		var zero T
		return zero, false
	}
	l.head = f.next
	if l.head == nil {
		l.tail = nil
	}
	v := f.Value
	l.n--
	l.frames.Free(f)
	return v, true
}

// All yields the values front to back.
func (l *SList[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for f := l.head; f != nil; f = f.next {
			if !yield(f.Value) {
				return
			}
		}
	}
}
