// Package audio converts between the telephony wire format and the PCM the
// speech services consume and produce. The wire format is base64-framed,
// 8 kHz mono, 16-bit little-endian linear PCM.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

const (
	// SampleRate is the fixed telephony rate in Hz.
	SampleRate = 8000
	// BytesPerSample for 16-bit linear PCM.
	BytesPerSample = 2
	// BytesPerSecond of mono PCM16 at SampleRate.
	BytesPerSecond = SampleRate * BytesPerSample
)

// DecodeFrame decodes a base64 media payload into raw PCM bytes.
func DecodeFrame(payload string) ([]byte, error) {
	if payload == "" {
		return nil, nil
	}
	pcm, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("audio: decode frame: %w", err)
	}
	return pcm, nil
}

// EncodeFrame encodes raw PCM bytes for an outbound media payload.
func EncodeFrame(pcm []byte) string {
	return base64.StdEncoding.EncodeToString(pcm)
}

// IsSilent reports whether a frame is made only of zero bytes. It is a crude
// endpointing signal, not voice activity detection.
func IsSilent(frame []byte) bool {
	for _, b := range frame {
		if b != 0 {
			return false
		}
	}
	return true
}

// Samples converts little-endian PCM16 bytes into samples. A trailing odd
// byte is dropped.
func Samples(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return out
}

// Bytes converts samples into little-endian PCM16 bytes.
func Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// DurationMillis returns the playback length in milliseconds of n PCM bytes at the
// telephony rate.
func DurationMillis(n int) int {
	return n * 1000 / BytesPerSecond
}
