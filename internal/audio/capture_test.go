package audio

import (
	"math"
	"testing"
	"time"
)

func TestDownmixInterleavedMono(t *testing.T) {
	input := []float32{0.1, 0.2, 0.3, 0.4}
	got := downmixInterleaved(input, 1, len(input))

	if len(got) != len(input) {
		t.Fatalf("expected %d samples, got %d", len(input), len(got))
	}
	for i := range input {
		if got[i] != input[i] {
			t.Fatalf("expected element %d to be %f, got %f", i, input[i], got[i])
		}
	}

	if &got[0] == &input[0] {
		t.Fatal("expected mono result to be copied into a new slice")
	}
}

func TestDownmixInterleavedStereo(t *testing.T) {
	frames := 4
	input := []float32{
		0.0, 1.0,
		0.5, 0.5,
		1.0, 0.0,
		-0.5, 0.5,
	}

	expected := []float32{
		0.5, 0.5, 0.5, 0.0,
	}

	got := downmixInterleaved(input, 2, frames)
	if len(got) != len(expected) {
		t.Fatalf("expected %d frames, got %d", len(expected), len(got))
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("frame %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestDownmixInterleavedMoreChannels(t *testing.T) {
	frames := 2
	input := []float32{
		1, 3, 5,
		2, 4, 6,
	}

	expected := []float32{3, 4}

	got := downmixInterleaved(input, 3, frames)
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("frame %d mismatch: expected %f, got %f", i, expected[i], got[i])
		}
	}
}

func TestMeasureLevelSilence(t *testing.T) {
	level := MeasureLevel(make([]float32, 1024))
	if level.MeanAbs != 0 || level.RMS != 0 {
		t.Fatalf("expected zero level, got %+v", level)
	}
	if level.DB != -100 {
		t.Fatalf("expected -100dB floor, got %v", level.DB)
	}

	if got := MeasureLevel(nil); got.DB != -100 {
		t.Fatalf("expected -100dB for empty input, got %v", got.DB)
	}
}

func TestMeasureLevelSquareWave(t *testing.T) {
	samples := make([]float32, 1000)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 0.5
		} else {
			samples[i] = -0.5
		}
	}

	level := MeasureLevel(samples)
	if math.Abs(level.MeanAbs-0.5) > 1e-9 {
		t.Errorf("expected mean abs 0.5, got %v", level.MeanAbs)
	}
	if math.Abs(level.RMS-0.5) > 1e-9 {
		t.Errorf("expected rms 0.5, got %v", level.RMS)
	}
	if math.Abs(level.DB-20*math.Log10(0.5)) > 1e-9 {
		t.Errorf("unexpected dB %v", level.DB)
	}
	if level.Peak != 0.5 {
		t.Errorf("expected peak 0.5, got %v", level.Peak)
	}
}

func TestAudioBufferDuration(t *testing.T) {
	buf := &AudioBuffer{Samples: make([]float32, 22050), SampleRate: 44100}
	if got := buf.Duration(); got != 500*time.Millisecond {
		t.Fatalf("expected 500ms, got %v", got)
	}

	var empty *AudioBuffer
	if got := empty.Duration(); got != 0 {
		t.Fatalf("expected zero duration for nil buffer, got %v", got)
	}
}
