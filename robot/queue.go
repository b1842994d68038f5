package robot

import (
	"sync"

	"roverbot/core"
)

// Queue hands bytes from a reader goroutine to the control loop. It
// satisfies Input on the consuming side and io.Writer on the producing
// side.
type Queue struct {
	mu   sync.Mutex
	buf  []byte
	max  int
	lost uint32
}

// NewQueue returns a queue holding at most max bytes; zero means 256.
func NewQueue(max int) *Queue {
	if max <= 0 {
		max = 256
	}
	return &Queue{max: max}
}

// Write appends p. Bytes that do not fit are dropped and counted, as a
// UART receive buffer would, and still reported as written.
func (q *Queue) Write(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(p)
	if room := q.max - len(q.buf); room < n {
		q.lost += uint32(n - room)
		p = p[:room]
	}
	q.buf = append(q.buf, p...)
	return n, nil
}

func (q *Queue) Buffered() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

func (q *Queue) ReadByte() (byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.buf) == 0 {
		return 0, ErrEmpty
	}
	b := q.buf[0]
	q.buf = q.buf[1:]
	return b, nil
}

// Lost counts dropped bytes.
func (q *Queue) Lost() uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lost
}

const ErrEmpty = core.Error("queue empty")
