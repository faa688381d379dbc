package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hajimehoshi/go-mp3"
)

// ErrEmpty is returned when there is no audio to normalize.
var ErrEmpty = errors.New("audio: empty input")

// Normalize converts synthesized speech into telephony PCM (8 kHz mono PCM16).
// WAV and MP3 inputs are detected by their headers; anything else is treated
// as raw PCM16 already at rawRate Hz.
func Normalize(data []byte, rawRate int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	switch {
	case IsWAV(data):
		pcm, format, err := ParseWAV(data)
		if err != nil {
			return nil, err
		}
		return ConvertPCM(pcm, format)
	case isMP3(data):
		return decodeMP3(data)
	default:
		if rawRate <= 0 {
			rawRate = SampleRate
		}
		return ConvertPCM(data, Format{SampleRate: rawRate, Channels: 1, BitsPerSample: 16})
	}
}

// ConvertPCM downmixes and resamples interleaved PCM in the given format to
// the telephony format. 8-bit PCM is unsigned per the WAV convention.
func ConvertPCM(pcm []byte, format Format) ([]byte, error) {
	if format.Channels <= 0 || format.SampleRate <= 0 {
		return nil, fmt.Errorf("audio: invalid format %+v", format)
	}
	var samples []int16
	switch format.BitsPerSample {
	case 16:
		samples = Samples(pcm)
	case 8:
		samples = make([]int16, len(pcm))
		for i, b := range pcm {
			samples[i] = int16(int(b)-128) << 8
		}
	default:
		return nil, fmt.Errorf("audio: unsupported bit depth %d", format.BitsPerSample)
	}
	mono := Downmix(samples, format.Channels)
	out := Resample(mono, format.SampleRate, SampleRate)
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return Bytes(out), nil
}

// Downmix averages interleaved channels into one.
func Downmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += int(samples[i*channels+c])
		}
		out[i] = int16(sum / channels)
	}
	return out
}

// Resample converts between rates with linear interpolation.
func Resample(in []int16, inRate, outRate int) []int16 {
	if inRate == outRate || len(in) == 0 {
		return append([]int16(nil), in...)
	}
	ratio := float64(outRate) / float64(inRate)
	outLen := int(math.Round(float64(len(in)) * ratio))
	if outLen <= 1 {
		return []int16{}
	}
	out := make([]int16, outLen)
	for i := range out {
		src := float64(i) / ratio
		i0 := int(math.Floor(src))
		if i0 >= len(in) {
			i0 = len(in) - 1
		}
		i1 := i0 + 1
		if i1 >= len(in) {
			i1 = len(in) - 1
		}
		f := src - float64(i0)
		v := float64(in[i0])*(1-f) + float64(in[i1])*f
		out[i] = int16(math.Max(math.MinInt16, math.Min(math.MaxInt16, v)))
	}
	return out
}

func isMP3(data []byte) bool {
	if len(data) >= 3 && string(data[:3]) == "ID3" {
		return true
	}
	// MPEG layer III frame sync.
	if len(data) < 2 || data[0] != 0xFF {
		return false
	}
	switch data[1] {
	case 0xFB, 0xFA, 0xF3, 0xF2, 0xE3, 0xE2:
		return true
	}
	return false
}

// decodeMP3 relies on go-mp3 always emitting 16-bit stereo.
func decodeMP3(data []byte) ([]byte, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("audio: mp3 decoder: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("audio: mp3 decode: %w", err)
	}
	return ConvertPCM(raw, Format{SampleRate: dec.SampleRate(), Channels: 2, BitsPerSample: 16})
}
