package delay

// Queue is a FIFO of quantised secondary values waiting for the primary
// stream to catch up.
type Queue struct {
	items []int64
}

// Push appends v at the tail.
func (q *Queue) Push(v int64) { q.items = append(q.items, v) }

// Head returns the oldest value. ok is false when the queue is empty.
func (q *Queue) Head() (v int64, ok bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	return q.items[0], true
}

// Pop removes the head. It is a no-op on an empty queue.
func (q *Queue) Pop() {
	if len(q.items) > 0 {
		q.items = q.items[1:]
	}
}

// RemoveValue removes the oldest entry equal to v, wherever it sits.
func (q *Queue) RemoveValue(v int64) bool {
	for i, item := range q.items {
		if item == v {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the queue.
func (q *Queue) Clear() { q.items = q.items[:0] }

// Len is the number of pending values.
func (q *Queue) Len() int { return len(q.items) }

// Values returns a copy of the pending values, head first.
func (q *Queue) Values() []int64 {
	out := make([]int64, len(q.items))
	copy(out, q.items)
	return out
}
