//go:build !tinygo

package protocol

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// DefaultTimeout bounds how long the host waits for an ACK or a response.
const DefaultTimeout = 2 * time.Second

// Response is a message received from the robot.
type Response struct {
	ID   uint16
	Seq  uint8
	Args []byte
}

// Decoder returns a decoder positioned on the response arguments.
func (r Response) Decoder() *Decoder {
	return NewDecoder(r.Args)
}

// HostTransport is the host side of the serial link. One request is in
// flight at a time; responses are delivered in arrival order.
type HostTransport struct {
	port io.ReadWriteCloser

	mu      sync.Mutex // serialises requests
	seq     uint8
	timeout time.Duration

	scan      scanner
	acks      chan uint8
	responses chan Response
	listeners []func(Response)
	lmu       sync.Mutex

	stop     chan struct{}
	done     chan struct{}
	closeErr error
	once     sync.Once
}

// NewHostTransport starts reading from port in the background.
func NewHostTransport(port io.ReadWriteCloser) *HostTransport {
	t := &HostTransport{
		port:      port,
		seq:       MessageDest,
		timeout:   DefaultTimeout,
		acks:      make(chan uint8, 4),
		responses: make(chan Response, 16),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go t.readLoop()
	return t
}

// Subscribe registers fn for every response, including unsolicited ones.
// fn runs on the reader goroutine and must not block.
func (t *HostTransport) Subscribe(fn func(Response)) {
	t.lmu.Lock()
	t.listeners = append(t.listeners, fn)
	t.lmu.Unlock()
}

// SetTimeout changes how long Send waits for the acknowledgement. The
// robot only reads the port between control loop steps, so a busy robot
// can take seconds to answer.
func (t *HostTransport) SetTimeout(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if d > 0 {
		t.timeout = d
	}
}

// Send writes one message and waits for its acknowledgement.
func (t *HostTransport) Send(id uint16, fill func(e *Encoder)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.send(id, fill, t.timeout)
}

// Call sends a message and waits for the response with ID want.
func (t *HostTransport) Call(id uint16, fill func(e *Encoder), want uint16, timeout time.Duration) (Response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.drainResponses()
	if err := t.send(id, fill, timeout); err != nil {
		return Response{}, err
	}
	deadline := time.After(timeout)
	for {
		select {
		case r := <-t.responses:
			if r.ID == want {
				return r, nil
			}
		case <-deadline:
			name := fmt.Sprint(want)
			if f, ok := Lookup(want); ok {
				name = f.Name
			}
			return Response{}, fmt.Errorf("waiting for %s: timeout after %v", name, timeout)
		case <-t.stop:
			return Response{}, ErrClosed
		}
	}
}

func (t *HostTransport) send(id uint16, fill func(e *Encoder), timeout time.Duration) error {
	var enc Encoder
	enc.PutUint(uint32(id))
	if fill != nil {
		fill(&enc)
	}
	if err := enc.Err(); err != nil {
		return fmt.Errorf("encode message %d: %w", id, err)
	}
	t.drainAcks()

	frame := AppendFrame(make([]byte, 0, MessageMax), t.seq, enc.Bytes())
	if _, err := t.port.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}

	want := NextSeq(t.seq)
	select {
	case ack := <-t.acks:
		if ack != want {
			// The robot tells us which sequence it expects.
			t.seq = ack
			return fmt.Errorf("%w: robot expects seq 0x%02x", ErrNak, ack)
		}
		t.seq = want
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("ack timeout after %v", timeout)
	case <-t.stop:
		return ErrClosed
	}
}

func (t *HostTransport) drainAcks() {
	for {
		select {
		case <-t.acks:
		default:
			return
		}
	}
}

func (t *HostTransport) drainResponses() {
	for {
		select {
		case <-t.responses:
		default:
			return
		}
	}
}

func (t *HostTransport) readLoop() {
	defer close(t.done)
	var pending []byte
	buf := make([]byte, 128)
	for {
		n, err := t.port.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			used := t.scan.scan(pending, t.frame)
			pending = append(pending[:0], pending[used:]...)
		}
		if err != nil {
			select {
			case <-t.stop:
				return
			default:
			}
			if err == io.EOF {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (t *HostTransport) frame(seq uint8, payload []byte) {
	if len(payload) == 0 {
		select {
		case t.acks <- seq:
		default:
		}
		return
	}
	d := NewDecoder(payload)
	id := uint16(d.Uint())
	if d.Err() != nil {
		return
	}
	args := make([]byte, d.Remaining())
	copy(args, payload[len(payload)-len(args):])
	r := Response{ID: id, Seq: seq, Args: args}

	t.lmu.Lock()
	for _, fn := range t.listeners {
		fn(r)
	}
	t.lmu.Unlock()

	select {
	case t.responses <- r:
	default:
		// Drop the oldest.
		select {
		case <-t.responses:
		default:
		}
		t.responses <- r
	}
}

// Seq returns the sequence of the next request.
func (t *HostTransport) Seq() uint8 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

// Close stops the reader and closes the port.
func (t *HostTransport) Close() error {
	t.once.Do(func() {
		close(t.stop)
		t.closeErr = t.port.Close()
		<-t.done
	})
	return t.closeErr
}
