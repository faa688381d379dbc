package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrNotWAV is returned when a buffer does not carry a RIFF/WAVE header.
var ErrNotWAV = errors.New("audio: not a wav stream")

// Format describes interleaved linear PCM.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// Telephony is the outbound format every prompt is normalized to.
var Telephony = Format{SampleRate: SampleRate, Channels: 1, BitsPerSample: 16}

// WrapWAV prepends a canonical 44-byte RIFF header to mono PCM16 at rate Hz.
func WrapWAV(pcm []byte, rate int) []byte {
	var buf bytes.Buffer
	dataLen := uint32(len(pcm))
	byteRate := uint32(rate * BytesPerSample)

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, byteRate)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(BytesPerSample))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(pcm)
	return buf.Bytes()
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// ParseWAV walks the RIFF chunks and returns the PCM payload with its format.
// Only uncompressed PCM (format tag 1) is accepted.
func ParseWAV(data []byte) ([]byte, Format, error) {
	if !IsWAV(data) {
		return nil, Format{}, ErrNotWAV
	}
	var (
		format   Format
		haveFmt  bool
		pos      = 12
		audioFmt uint16
	)
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + size
		if end > len(data) {
			// Streamed WAVs often carry a placeholder data size.
			end = len(data)
		}
		switch id {
		case "fmt ":
			if end-body < 16 {
				return nil, Format{}, fmt.Errorf("audio: short fmt chunk")
			}
			audioFmt = binary.LittleEndian.Uint16(data[body:])
			format.Channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			format.SampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			format.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14:]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, Format{}, fmt.Errorf("audio: data chunk before fmt")
			}
			if audioFmt != 1 {
				return nil, Format{}, fmt.Errorf("audio: unsupported wav encoding %d", audioFmt)
			}
			return data[body:end], format, nil
		}
		pos = end + size%2
	}
	return nil, Format{}, fmt.Errorf("audio: wav has no data chunk")
}
