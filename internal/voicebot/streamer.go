package voicebot

import (
	"context"
	"time"

	"github.com/wolfman30/emi-voice-agent/internal/audio"
)

// DefaultChunkBytes is 20ms of 8 kHz mono PCM16.
const DefaultChunkBytes = 320

// SleepFunc pauses between outbound frames.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Streamer paces synthesized audio onto the connection at roughly real time.
type Streamer struct {
	chunkBytes int
	sleep      SleepFunc
}

func NewStreamer(chunkBytes int, sleep SleepFunc) *Streamer {
	if chunkBytes <= 0 {
		chunkBytes = DefaultChunkBytes
	}
	if chunkBytes%audio.BytesPerSample != 0 {
		chunkBytes++
	}
	if sleep == nil {
		sleep = sleepContext
	}
	return &Streamer{chunkBytes: chunkBytes, sleep: sleep}
}

// Chunks splits pcm into size-byte pieces; the last may be shorter.
// Concatenating the result reproduces pcm exactly.
func Chunks(pcm []byte, size int) [][]byte {
	if size <= 0 || len(pcm) == 0 {
		return nil
	}
	out := make([][]byte, 0, (len(pcm)+size-1)/size)
	for start := 0; start < len(pcm); start += size {
		end := min(start+size, len(pcm))
		out = append(out, pcm[start:end])
	}
	return out
}

// ChunkDuration is the playback time of n bytes of telephony PCM.
func ChunkDuration(n int) time.Duration {
	return time.Duration(n) * time.Second / audio.BytesPerSecond
}

// Stream sends pcm chunk by chunk, sleeping for each chunk's duration after
// it is sent. It returns the number of chunks sent.
func (s *Streamer) Stream(ctx context.Context, pcm []byte, send func(chunk []byte) error) (int, error) {
	sent := 0
	for _, chunk := range Chunks(pcm, s.chunkBytes) {
		if err := send(chunk); err != nil {
			return sent, err
		}
		sent++
		if err := s.sleep(ctx, ChunkDuration(len(chunk))); err != nil {
			return sent, err
		}
	}
	return sent, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
