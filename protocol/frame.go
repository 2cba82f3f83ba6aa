package protocol

import (
	"errors"
	"fmt"
)

// Frame layout: [len][seq][payload...][crc hi][crc lo][sync]
const (
	FrameHeaderSize  = 2
	FrameTrailerSize = 3
	FrameMin         = FrameHeaderSize + FrameTrailerSize
	FrameMax         = 64

	framePosLen     = 0
	framePosSeq     = 1
	frameTrailerCRC = 3

	SyncByte = 0x7E
	SeqMask  = 0x0F
	SeqDest  = 0x10
)

var ErrFrameTooLong = errors.New("frame too long")

// Frame is one decoded message.
type Frame struct {
	Sequence uint8
	Payload  []byte
}

// NextSequence returns the sequence number that follows seq.
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & SeqMask) | SeqDest
}

// EncodeFrame appends one frame to out. The payload callback writes the
// frame body; if the result exceeds FrameMax nothing is appended.
func EncodeFrame(out *ScratchOutput, seq uint8, payload func(output OutputBuffer)) error {
	start := out.CurPosition()
	out.Output([]byte{0, (seq & SeqMask) | SeqDest})
	if payload != nil {
		payload(out)
	}

	length := len(out.DataSince(start)) + FrameTrailerSize
	if length > FrameMax {
		out.Truncate(start)
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLong, length, FrameMax)
	}
	out.Update(start+framePosLen, uint8(length))

	crc := CRC16(out.DataSince(start))
	out.Output([]byte{uint8(crc >> 8), uint8(crc & 0xFF), SyncByte})
	return nil
}

// Decoder extracts frames from a byte stream, resynchronising on the sync
// byte whenever a length, CRC or trailer check fails.
type Decoder struct {
	synced  bool
	dropped int
}

// NewDecoder creates a decoder that assumes the stream starts on a frame
// boundary.
func NewDecoder() *Decoder {
	return &Decoder{synced: true}
}

// Dropped returns how many times the decoder lost synchronisation.
func (d *Decoder) Dropped() int {
	return d.dropped
}

// Decode consumes every complete frame in in and passes it to fn.
// Incomplete trailing data is left in the buffer for the next call.
func (d *Decoder) Decode(in *FifoBuffer, fn func(Frame)) {
	data := in.Data()
	total := len(data)

	for len(data) > 0 {
		if !d.synced {
			i := 0
			for i < len(data) && data[i] != SyncByte {
				i++
			}
			if i == len(data) {
				data = nil
				break
			}
			data = data[i+1:]
			d.synced = true
			continue
		}

		if data[0] == SyncByte {
			data = data[1:]
			continue
		}
		if len(data) < FrameMin {
			break
		}

		length := int(data[framePosLen])
		if length < FrameMin || length > FrameMax {
			d.lose()
			continue
		}
		seq := data[framePosSeq]
		if seq&^SeqMask != SeqDest {
			d.lose()
			continue
		}
		if len(data) < length {
			break
		}
		if data[length-1] != SyncByte {
			d.lose()
			continue
		}

		want := uint16(data[length-frameTrailerCRC])<<8 | uint16(data[length-frameTrailerCRC+1])
		if CRC16(data[:length-FrameTrailerSize]) != want {
			d.lose()
			continue
		}

		payload := make([]byte, length-FrameMin)
		copy(payload, data[FrameHeaderSize:length-FrameTrailerSize])
		data = data[length:]

		fn(Frame{Sequence: seq, Payload: payload})
	}

	in.Pop(total - len(data))
}

func (d *Decoder) lose() {
	d.synced = false
	d.dropped++
}
