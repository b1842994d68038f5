package protocol

import "io"

// Handler processes one message. args is positioned after the message ID.
type Handler func(id uint16, args *Decoder) error

// Link is the robot side of the serial link. Bytes from the UART are fed
// in with Feed; every accepted frame is acknowledged with the sequence the
// link expects next, which doubles as a NAK when a frame was skipped.
type Link struct {
	w       io.Writer
	handler Handler
	scan    scanner

	nextSeq uint8
	pending [2 * MessageMax]byte
	npend   int
	out     [MessageMax]byte
	args    Decoder
	enc     Encoder

	handlerErrors uint32
	lastErr       error
	onReset       func()
}

// NewLink returns a link writing frames to w and dispatching messages to h.
func NewLink(w io.Writer, h Handler) *Link {
	return &Link{w: w, handler: h, nextSeq: MessageDest}
}

// OnReset installs a callback run when the host restarts its sequence.
func (l *Link) OnReset(fn func()) { l.onReset = fn }

// Feed consumes received bytes. Incomplete frames are kept until the rest
// arrives; input that does not fit is dropped and the link resyncs.
func (l *Link) Feed(p []byte) {
	for len(p) > 0 {
		n := copy(l.pending[l.npend:], p)
		l.npend += n
		p = p[n:]
		used := l.scan.scan(l.pending[:l.npend], l.frame)
		if used == 0 && l.npend == len(l.pending) {
			l.scan.resync()
			used = l.npend
		}
		l.npend = copy(l.pending[:], l.pending[used:l.npend])
	}
}

func (l *Link) frame(seq uint8, payload []byte) {
	if seq == MessageDest && l.nextSeq != MessageDest {
		l.nextSeq = MessageDest
		if l.onReset != nil {
			l.onReset()
		}
	}
	if seq == l.nextSeq {
		l.nextSeq = NextSeq(seq)
		l.dispatch(payload)
	}
	l.writeFrame(nil)
}

// dispatch runs every message in payload. A handler error abandons the
// rest of the frame but keeps the link in sync.
func (l *Link) dispatch(payload []byte) {
	l.args.Reset(payload)
	for l.args.Remaining() > 0 {
		id := uint16(l.args.Uint())
		if err := l.args.Err(); err != nil {
			l.fail(err)
			return
		}
		if l.handler == nil {
			return
		}
		if err := l.handler(id, &l.args); err != nil {
			l.fail(err)
			return
		}
		if err := l.args.Err(); err != nil {
			l.fail(err)
			return
		}
	}
}

func (l *Link) fail(err error) {
	l.handlerErrors++
	l.lastErr = err
}

// Send writes one message frame. fill may be nil for messages without
// arguments.
func (l *Link) Send(id uint16, fill func(e *Encoder)) error {
	l.enc.Reset()
	l.enc.PutUint(uint32(id))
	if fill != nil {
		fill(&l.enc)
	}
	if err := l.enc.Err(); err != nil {
		return err
	}
	return l.writeFrame(l.enc.Bytes())
}

func (l *Link) writeFrame(payload []byte) error {
	frame := AppendFrame(l.out[:0], l.nextSeq, payload)
	_, err := l.w.Write(frame)
	return err
}

// Reset forgets partial input and expects the first host sequence again.
func (l *Link) Reset() {
	l.npend = 0
	l.scan.lost = false
	l.nextSeq = MessageDest
}

// Idle reports whether no partial frame is buffered.
func (l *Link) Idle() bool { return l.npend == 0 }

func (l *Link) NextSeq() uint8        { return l.nextSeq }
func (l *Link) Received() uint32      { return l.scan.received }
func (l *Link) Desyncs() uint32       { return l.scan.desyncs }
func (l *Link) HandlerErrors() uint32 { return l.handlerErrors }
func (l *Link) LastError() error      { return l.lastErr }
