package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog"
)

const (
	framesPerBuffer     = 512
	defaultStallTimeout = 2 * time.Second
)

// InputDevice describes a capture device
type InputDevice struct {
	Name       string
	Channels   int
	SampleRate float64
	Default    bool
}

// PortAudioMicrophone captures from a PortAudio input device
type PortAudioMicrophone struct {
	deviceID      string
	channels      int
	amplification float32 // audio signal amplification factor
	stallTimeout  time.Duration
	log           zerolog.Logger
}

// NewPortAudioMicrophone creates a microphone for the named device, or the
// default input when deviceID is empty
func NewPortAudioMicrophone(deviceID string, gain float32, log zerolog.Logger) *PortAudioMicrophone {
	m := &PortAudioMicrophone{
		deviceID:     deviceID,
		channels:     1,
		stallTimeout: defaultStallTimeout,
		log:          log,
	}
	m.SetAmplification(gain)
	return m
}

// SetAmplification sets the gain applied to captured samples
func (m *PortAudioMicrophone) SetAmplification(factor float32) {
	// Ensure amplification is positive
	if factor < 0.1 {
		factor = 0.1
	}
	m.amplification = factor
}

// Open initialises PortAudio and starts a callback stream feeding a ring of
// windowSize samples
func (m *PortAudioMicrophone) Open(ctx context.Context, sampleRate, windowSize int) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if windowSize <= 0 {
		return nil, fmt.Errorf("invalid window size %d", windowSize)
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize PortAudio: %v", ErrDeviceUnavailable, err)
	}

	device, err := findInputDevice(m.deviceID)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	channels := m.channels
	if device.MaxInputChannels < channels {
		channels = device.MaxInputChannels
	}

	s := &portAudioStream{
		ring:          NewRing[float32](windowSize),
		channels:      channels,
		amplification: m.amplification,
		sampleRate:    sampleRate,
		stallTimeout:  m.stallTimeout,
	}
	s.lastWrite.Store(time.Now().UnixNano())

	params := portaudio.LowLatencyParameters(device, nil)
	params.Input.Channels = channels
	params.SampleRate = float64(sampleRate)
	params.FramesPerBuffer = framesPerBuffer

	stream, err := portaudio.OpenStream(params, s.process)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: failed to open audio stream: %v", ErrDeviceUnavailable, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: failed to start audio stream: %v", ErrDeviceUnavailable, err)
	}

	if info := stream.Info(); info != nil && info.SampleRate > 0 {
		s.sampleRate = int(info.SampleRate)
	}
	s.stream = stream

	m.log.Info().
		Str("device", device.Name).
		Int("channels", channels).
		Int("sample_rate", s.sampleRate).
		Int("window", windowSize).
		Msg("Audio capture started")

	return s, nil
}

// ListInputDevices enumerates devices that can capture
func ListInputDevices() ([]InputDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize PortAudio: %v", ErrDeviceUnavailable, err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	defaultDevice, _ := portaudio.DefaultInputDevice()

	result := make([]InputDevice, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, InputDevice{
				Name:       d.Name,
				Channels:   d.MaxInputChannels,
				SampleRate: d.DefaultSampleRate,
				Default:    d == defaultDevice,
			})
		}
	}

	return result, nil
}

func findInputDevice(deviceID string) (*portaudio.DeviceInfo, error) {
	if deviceID == "" {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to get default input device: %v", ErrDeviceUnavailable, err)
		}
		return device, nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to enumerate devices: %v", ErrDeviceUnavailable, err)
	}
	for _, d := range devices {
		if d.Name == deviceID && d.MaxInputChannels > 0 {
			return d, nil
		}
	}

	return nil, fmt.Errorf("%w: device not found: %s", ErrDeviceUnavailable, deviceID)
}

type portAudioStream struct {
	stream        *portaudio.Stream
	ring          *Ring[float32]
	channels      int
	amplification float32
	sampleRate    int
	stallTimeout  time.Duration

	lastWrite atomic.Int64
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// process is the PortAudio callback
func (s *portAudioStream) process(in []float32) {
	mono := downmixInterleaved(in, s.channels, len(in)/s.channels)
	for i := range mono {
		mono[i] *= s.amplification
	}
	s.ring.Enqueue(mono...)
	s.lastWrite.Store(time.Now().UnixNano())
}

func (s *portAudioStream) Read(buf []float32) error {
	if s.closed.Load() {
		return ErrStreamClosed
	}

	// A device that was unplugged stops calling back
	if time.Since(time.Unix(0, s.lastWrite.Load())) > s.stallTimeout {
		return ErrCaptureStalled
	}

	if len(buf) == s.ring.Cap() {
		return s.ring.Retrieve(buf)
	}

	recent := s.ring.Last(len(buf))
	clear(buf)
	copy(buf[len(buf)-len(recent):], recent)
	return nil
}

func (s *portAudioStream) SampleRate() int {
	return s.sampleRate
}

func (s *portAudioStream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = errors.Join(s.stream.Stop(), s.stream.Close(), portaudio.Terminate())
	})
	return s.closeErr
}
