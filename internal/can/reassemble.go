package can

// FrameLength is the payload size of every frame we reassemble.
const FrameLength = 8

// Frame is a complete 8-byte payload. Time is the time of the identifier
// record that opened it, not of its last data byte.
type Frame struct {
	ID   uint32
	Time float64
	Data [FrameLength]byte
}

// Reassembler groups data records behind the identifier record that
// precedes them. It is fed one record at a time in export order.
type Reassembler struct {
	haveID  bool
	id      uint32
	start   float64
	buf     [FrameLength]byte
	n       int
	emitted int
	dropped int
}

// Push consumes a record and returns a frame once 8 data bytes have
// accumulated for the current identifier. A new identifier record discards
// any partial run.
func (r *Reassembler) Push(rec Record) (Frame, bool) {
	switch rec.Kind {
	case KindIdentifier:
		if r.n > 0 {
			r.dropped++
		}
		r.haveID = true
		r.id = rec.ID
		r.start = rec.Time
		r.n = 0
	case KindData:
		// bytes ahead of the first identifier have no owner
		if !r.haveID {
			return Frame{}, false
		}
		r.buf[r.n] = rec.Byte
		r.n++
		if r.n == FrameLength {
			r.n = 0
			r.emitted++
			return Frame{ID: r.id, Time: r.start, Data: r.buf}, true
		}
	}
	return Frame{}, false
}

// Reset forgets the current identifier after a record was lost. A partial
// run is counted as dropped, and data records are ignored until the next
// identifier.
func (r *Reassembler) Reset() {
	if r.n > 0 {
		r.dropped++
	}
	r.haveID = false
	r.n = 0
}

// Flush discards a trailing partial run and counts it as dropped.
func (r *Reassembler) Flush() {
	if r.n > 0 {
		r.dropped++
		r.n = 0
	}
}

// Emitted is the number of frames produced.
func (r *Reassembler) Emitted() int { return r.emitted }

// Dropped is the number of partial runs discarded.
func (r *Reassembler) Dropped() int { return r.dropped }

// Reassemble runs a fresh reassembler over recs.
func Reassemble(recs []Record) []Frame {
	var r Reassembler
	var frames []Frame
	for _, rec := range recs {
		if f, ok := r.Push(rec); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

// FramesWithID filters frames to one identifier, keeping order.
func FramesWithID(frames []Frame, id uint32) []Frame {
	var out []Frame
	for _, f := range frames {
		if f.ID == id {
			out = append(out, f)
		}
	}
	return out
}
