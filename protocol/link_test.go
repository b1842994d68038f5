package protocol

import (
	"bytes"
	"errors"
	"testing"
)

type recorded struct {
	id   uint16
	args []int32
}

func newTestLink() (*Link, *bytes.Buffer, *[]recorded) {
	var out bytes.Buffer
	var got []recorded
	l := NewLink(&out, func(id uint16, d *Decoder) error {
		r := recorded{id: id}
		switch id {
		case MsgDrive:
			r.args = []int32{d.Int(), d.Int(), d.Int()}
		case MsgServo:
			r.args = []int32{d.Int()}
		case MsgStop, MsgGetStatus:
		default:
			return ErrUnknownMessage
		}
		got = append(got, r)
		return nil
	})
	return l, &out, &got
}

func hostFrame(seq uint8, ids ...int32) []byte {
	var e Encoder
	for _, v := range ids {
		e.PutInt(v)
	}
	return AppendFrame(nil, seq, e.Bytes())
}

// frames splits written output back into (seq, payload) pairs.
func frames(t *testing.T, data []byte) [][2][]byte {
	t.Helper()
	var s scanner
	var out [][2][]byte
	used := s.scan(data, func(seq uint8, payload []byte) {
		out = append(out, [2][]byte{{seq}, append([]byte(nil), payload...)})
	})
	if used != len(data) || s.desyncs != 0 {
		t.Fatalf("output not a clean frame stream: used %d of %d, desyncs %d", used, len(data), s.desyncs)
	}
	return out
}

func TestLinkDispatchAndAck(t *testing.T) {
	l, out, got := newTestLink()

	l.Feed(hostFrame(MessageDest, int32(MsgDrive), 'F', 54, 50, int32(MsgStop)))

	if len(*got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(*got))
	}
	d := (*got)[0]
	if d.id != MsgDrive || d.args[0] != 'F' || d.args[1] != 54 || d.args[2] != 50 {
		t.Errorf("drive decoded as %+v", d)
	}
	fs := frames(t, out.Bytes())
	if len(fs) != 1 || len(fs[0][1]) != 0 || fs[0][0][0] != MessageDest+1 {
		t.Errorf("expected one ACK with seq 0x11, got %v", fs)
	}
	if l.NextSeq() != MessageDest+1 {
		t.Errorf("NextSeq() = %#x", l.NextSeq())
	}
}

func TestLinkPartialFrames(t *testing.T) {
	l, _, got := newTestLink()
	f := hostFrame(MessageDest, int32(MsgServo), -90)

	for i := range f {
		l.Feed(f[i : i+1])
	}
	if len(*got) != 1 || (*got)[0].args[0] != -90 {
		t.Errorf("byte-at-a-time feed decoded %+v", *got)
	}
}

func TestLinkOutOfSequenceIsNakked(t *testing.T) {
	l, out, got := newTestLink()
	l.Feed(hostFrame(MessageDest, int32(MsgStop)))
	out.Reset()

	// Skips 0x11.
	l.Feed(hostFrame(MessageDest+2, int32(MsgStop)))
	if len(*got) != 1 {
		t.Errorf("out of sequence frame was dispatched")
	}
	fs := frames(t, out.Bytes())
	if len(fs) != 1 || fs[0][0][0] != MessageDest+1 {
		t.Errorf("expected NAK asking for 0x11, got %v", fs)
	}
}

func TestLinkSequenceWraps(t *testing.T) {
	l, _, got := newTestLink()
	seq := uint8(MessageDest)
	for i := 0; i < 20; i++ {
		l.Feed(hostFrame(seq, int32(MsgStop)))
		seq = NextSeq(seq)
	}
	if len(*got) != 20 {
		t.Errorf("dispatched %d of 20", len(*got))
	}
	if l.NextSeq() != seq {
		t.Errorf("NextSeq() = %#x, expected %#x", l.NextSeq(), seq)
	}
}

func TestLinkHostReset(t *testing.T) {
	l, _, got := newTestLink()
	resets := 0
	l.OnReset(func() { resets++ })

	l.Feed(hostFrame(MessageDest, int32(MsgStop)))
	l.Feed(hostFrame(MessageDest+1, int32(MsgStop)))
	l.Feed(hostFrame(MessageDest, int32(MsgStop)))

	if resets != 1 {
		t.Errorf("resets = %d, expected 1", resets)
	}
	if len(*got) != 3 {
		t.Errorf("dispatched %d, expected 3", len(*got))
	}
}

func TestLinkResyncAfterGarbage(t *testing.T) {
	l, _, got := newTestLink()

	garbage := []byte{0x01, 0x02, 0x03, 0x04, 0x05, MessageSync}
	l.Feed(append(garbage, hostFrame(MessageDest, int32(MsgServo), 30)...))

	if l.Desyncs() == 0 {
		t.Error("corruption not counted")
	}
	if len(*got) != 1 || (*got)[0].id != MsgServo {
		t.Errorf("expected servo after resync, got %+v", *got)
	}
}

func TestLinkHandlerErrorKeepsSync(t *testing.T) {
	l, out, got := newTestLink()

	l.Feed(hostFrame(MessageDest, 99, int32(MsgStop)))
	if l.HandlerErrors() != 1 || !errors.Is(l.LastError(), ErrUnknownMessage) {
		t.Errorf("handler errors = %d, last = %v", l.HandlerErrors(), l.LastError())
	}
	if len(*got) != 0 {
		t.Error("messages after a failed one were dispatched")
	}
	if fs := frames(t, out.Bytes()); len(fs) != 1 {
		t.Errorf("expected an ACK, got %v", fs)
	}
	l.Feed(hostFrame(MessageDest+1, int32(MsgStop)))
	if len(*got) != 1 {
		t.Error("link stopped dispatching after a handler error")
	}
}

func TestLinkSend(t *testing.T) {
	l, out, _ := newTestLink()
	err := l.Send(MsgIdentifyResponse, func(e *Encoder) { e.PutString(Version) })
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	fs := frames(t, out.Bytes())
	if len(fs) != 1 {
		t.Fatalf("expected one frame, got %d", len(fs))
	}
	d := NewDecoder(fs[0][1])
	if id := d.Uint(); id != uint32(MsgIdentifyResponse) {
		t.Errorf("id = %d", id)
	}
	if v := d.String(); v != Version {
		t.Errorf("version = %q", v)
	}

	err = l.Send(MsgStatus, func(e *Encoder) {
		for i := 0; i < PayloadMax; i++ {
			e.PutByte(1)
		}
	})
	if err != ErrPayloadTooLong {
		t.Errorf("oversized Send returned %v", err)
	}
}
