// Package lookahead provides a fixed-depth peek window over a stream of values.
//
//	source ──next()──▶ ┌───┬───┬───┐
//	                   │ 0 │ 1 │ 2 │ ──Next()──▶ caller
//	                   └───┴───┴───┘
//	                     ▲ head rotates
//
// The window is refilled one slot at a time as values are consumed, so matching a
// multi-value delimiter never needs to rewind the source.
package lookahead

import "fmt"

type slot[T any] struct {
	val T
	ok  bool
}

// Window buffers the next Size() values of a source.
// Once the source reports the end of the stream it is never called again and
// the window keeps reporting the end (it is fused).
type Window[T comparable] struct {
	next  func() (T, bool)
	slots []slot[T]
	head  int
}

// New creates a window of the given size over next.
func New[T comparable](size int, next func() (T, bool)) *Window[T] {
	if size < 1 {
		panic(fmt.Sprintf("lookahead: window size must be positive, got %d", size))
	}

	me := &Window[T]{
		next:  next,
		slots: make([]slot[T], size),
	}

	for i := range me.slots {
		me.slots[i] = me.pull()
	}

	return me
}

// FromString creates a window over the runes of s.
func FromString(size int, s string) *Window[rune] {
	runes := []rune(s)
	i := 0
	return New(size, func() (rune, bool) {
		if i >= len(runes) {
			return 0, false
		}
		r := runes[i]
		i++
		return r, true
	})
}

func (me *Window[T]) pull() slot[T] {
	if me.next == nil {
		return slot[T]{}
	}
	v, ok := me.next()
	if !ok {
		me.next = nil
		return slot[T]{}
	}
	return slot[T]{val: v, ok: true}
}

// Size is the depth of the window.
func (me *Window[T]) Size() int {
	return len(me.slots)
}

// Peek returns the value n positions ahead without consuming anything.
// The boolean is false when fewer than n+1 values remain.
func (me *Window[T]) Peek(n int) (T, bool) {
	if n < 0 || n >= len(me.slots) {
		var zero T
		return zero, false
	}
	s := me.slots[(me.head+n)%len(me.slots)]
	return s.val, s.ok
}

// HasNext reports whether the upcoming values are exactly seq.
// Asking for more values than the window holds is a programming error and panics.
func (me *Window[T]) HasNext(seq ...T) bool {
	if len(seq) > len(me.slots) {
		panic(fmt.Sprintf("lookahead: sequence of length %d exceeds window size %d", len(seq), len(me.slots)))
	}
	for i, want := range seq {
		got, ok := me.Peek(i)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// ConsumeIf advances past seq when it is next in the stream.
// Nothing is consumed when it does not match.
func (me *Window[T]) ConsumeIf(seq ...T) bool {
	if !me.HasNext(seq...) {
		return false
	}
	for range seq {
		me.Next()
	}
	return true
}

// Next consumes one value. After the end of the stream it always returns false.
func (me *Window[T]) Next() (T, bool) {
	s := me.slots[me.head]
	me.slots[me.head] = me.pull()
	me.head = (me.head + 1) % len(me.slots)
	return s.val, s.ok
}
