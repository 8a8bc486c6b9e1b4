// Copyright 2025 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package queue

import "sync"

// Unbounded is a FIFO queue that never blocks producers. A single consumer
// waits on Wait() and drains with TryPop. The notify channel has capacity 1
// so that producers never block on it.
type Unbounded[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	notify chan struct{}
}

func NewUnbounded[T any]() *Unbounded[T] {
	return &Unbounded[T]{notify: make(chan struct{}, 1)}
}

// Push appends v. It returns false if the queue was closed.
func (q *Unbounded[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()
	q.signal()
	return true
}

// Wait returns a channel that receives a value whenever the queue may have
// items or has been closed.
func (q *Unbounded[T]) Wait() <-chan struct{} { return q.notify }

// TryPop removes the oldest item. ok is false when the queue is empty.
func (q *Unbounded[T]) TryPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return v, false
	}
	v = q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) > 0 {
		q.signal()
	}
	return v, true
}

func (q *Unbounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close stops accepting new items. Queued items can still be popped.
func (q *Unbounded[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

// Drained reports whether the queue is closed and empty.
func (q *Unbounded[T]) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}

func (q *Unbounded[T]) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
