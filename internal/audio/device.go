package audio

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Device is the application's audio handle. It is created once at startup
// and shared by the synthesizer and the pitch tracker.
type Device struct {
	*Speaker
	mic Microphone
}

// NewDevice pairs a lazily opened speaker with a microphone
func NewDevice(sampleRate int, outputBuffer time.Duration, mic Microphone, log zerolog.Logger) *Device {
	return &Device{
		Speaker: NewSpeaker(sampleRate, outputBuffer, log),
		mic:     mic,
	}
}

// Open starts a capture session on the device's microphone
func (d *Device) Open(ctx context.Context, sampleRate, windowSize int) (Stream, error) {
	if d.mic == nil {
		return nil, ErrDeviceUnavailable
	}
	return d.mic.Open(ctx, sampleRate, windowSize)
}

var (
	_ Output     = (*Device)(nil)
	_ Microphone = (*Device)(nil)
)
