package wire

// Assembler accumulates transport chunks and carves complete messages off the
// front. A transport read may carry zero, one, or many messages, and message
// boundaries need not line up with chunk boundaries.
//
// Consumed bytes are removed before Next returns, so a handler that pushes
// more bytes or reads further messages mid-loop sees a consistent queue.
// Assembler is not safe for concurrent use; each peer owns exactly one.
type Assembler struct {
	buf []byte
}

// Push appends one inbound chunk to the queue.
func (a *Assembler) Push(chunk []byte) {
	a.buf = append(a.buf, chunk...)
}

// Next decodes and removes the next complete message, if any.
//
// It returns (nil, nil) when the queue holds no complete message yet, and
// ErrMalformed when the front of the queue can never decode; the caller
// treats that as fatal and drops the connection.
func (a *Assembler) Next() (Message, error) {
	m, n, err := TryDecode(a.buf)
	if err != nil {
		if err == ErrNeedMoreData {
			return nil, nil
		}
		return nil, err
	}
	a.buf = a.buf[n:]
	if len(a.buf) == 0 {
		a.buf = nil
	}
	return m, nil
}

// Buffered reports how many bytes are queued but not yet decoded.
func (a *Assembler) Buffered() int { return len(a.buf) }
