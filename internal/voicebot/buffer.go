package voicebot

import (
	"time"

	"github.com/wolfman30/emi-voice-agent/internal/audio"
)

// SilenceFunc reports whether a frame carries no speech. The default is
// audio.IsSilent, an all-zero check; a real voice-activity detector can be
// dropped in without touching the conversation logic.
type SilenceFunc func(frame []byte) bool

// Buffer is a fixed-window endpointer. Inbound audio accumulates until the
// window elapses, then the whole accumulator is handed over as one turn.
type Buffer struct {
	window      time.Duration
	silent      SilenceFunc
	data        []byte
	speaking    bool
	lastFlushAt time.Time
}

// NewBuffer starts a window at now.
func NewBuffer(window time.Duration, silent SilenceFunc, now time.Time) *Buffer {
	if silent == nil {
		silent = audio.IsSilent
	}
	return &Buffer{window: window, silent: silent, lastFlushAt: now}
}

// Append adds a decoded frame. Silent frames are dropped until speech has
// begun in the current window; after that they are kept so pauses inside
// an utterance survive. Appending never moves the flush timer.
func (b *Buffer) Append(frame []byte) {
	if len(frame) == 0 {
		return
	}
	if !b.speaking {
		if b.silent(frame) {
			return
		}
		b.speaking = true
	}
	b.data = append(b.data, frame...)
}

// ShouldFlush reports whether the window has elapsed.
func (b *Buffer) ShouldFlush(now time.Time) bool {
	return now.Sub(b.lastFlushAt) >= b.window
}

// Flush returns the accumulated audio and starts a new window. An empty
// result means no speech this turn.
func (b *Buffer) Flush(now time.Time) []byte {
	out := b.data
	b.Reset(now)
	return out
}

// Reset discards buffered audio and restarts the window at now.
func (b *Buffer) Reset(now time.Time) {
	b.data = nil
	b.speaking = false
	b.lastFlushAt = now
}

func (b *Buffer) Len() int { return len(b.data) }
