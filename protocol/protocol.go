// Package protocol implements the framed serial link between the robot and
// a host: VLQ encoded message payloads, CRC16 checked frames and sequence
// numbered acknowledgements.
package protocol

// Version is the firmware version reported by identify.
const Version = "1.2.0"

// Frame layout: len, seq, payload..., crc hi, crc lo, sync.
const (
	MessageMax     = 64 // whole frame, header and trailer included
	MessageHeader  = 2
	MessageTrailer = 3
	MessageMin     = MessageHeader + MessageTrailer
	PayloadMax     = MessageMax - MessageMin

	posLength = 0
	posSeq    = 1

	MessageSync = 0x7E
	MessageDest = 0x10

	MessageSeqMask = 0x0F
)

// Message IDs. Both ends share the table, there is no dictionary exchange.
const (
	MsgIdentify uint16 = iota + 1
	MsgIdentifyResponse
	MsgGetStatus
	MsgStatus
	MsgSetMode
	MsgDrive
	MsgStop
	MsgServo
	MsgMeasure
	numMessages
)

// MessageFormat describes a message in the style of a command dictionary.
type MessageFormat struct {
	ID     uint16
	Name   string
	Format string
}

var formats = [...]MessageFormat{
	{MsgIdentify, "identify", ""},
	{MsgIdentifyResponse, "identify_response", "version=%s"},
	{MsgGetStatus, "get_status", ""},
	{MsgStatus, "status", "distance=%hu direction=%c moving=%c auto=%c speed1=%c speed2=%c servo=%i timeouts=%u desyncs=%u"},
	{MsgSetMode, "set_mode", "auto=%c"},
	{MsgDrive, "drive", "direction=%c speed1=%c speed2=%c"},
	{MsgStop, "stop", ""},
	{MsgServo, "servo", "angle=%i"},
	{MsgMeasure, "measure", ""},
}

// Formats lists every message in ID order.
func Formats() []MessageFormat {
	return formats[:]
}

// Lookup returns the format of id.
func Lookup(id uint16) (MessageFormat, bool) {
	if id == 0 || id >= numMessages {
		return MessageFormat{}, false
	}
	return formats[id-1], true
}

// NextSeq returns the sequence that follows seq.
func NextSeq(seq uint8) uint8 {
	return (seq+1)&MessageSeqMask | MessageDest
}
