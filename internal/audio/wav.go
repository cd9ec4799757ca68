package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("invalid WAV file")

// ReadWAV decodes a PCM WAV stream into a mono buffer in [-1, 1]
func ReadWAV(r io.ReadSeeker) (*AudioBuffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}
	if pcm.Format == nil || pcm.Format.NumChannels <= 0 {
		return nil, ErrInvalidWAV
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 {
		return nil, ErrInvalidWAV
	}
	scale := math.Pow(2, float64(bitDepth-1))

	floats := make([]float32, len(pcm.Data))
	for i, v := range pcm.Data {
		// 8-bit PCM is unsigned
		if bitDepth == 8 {
			v -= 128
		}
		floats[i] = float32(float64(v) / scale)
	}

	channels := pcm.Format.NumChannels
	return &AudioBuffer{
		Samples:    downmixInterleaved(floats, channels, len(floats)/channels),
		SampleRate: pcm.Format.SampleRate,
	}, nil
}

// LoadWAV reads a WAV file from disk
func LoadWAV(path string) (*AudioBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadWAV(f)
}

// WriteWAV encodes buf as mono PCM at the given bit depth
func WriteWAV(w io.WriteSeeker, buf *AudioBuffer, bitDepth int) error {
	if buf == nil || buf.SampleRate <= 0 {
		return errors.New("empty audio buffer")
	}
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return fmt.Errorf("unsupported bit depth %d", bitDepth)
	}

	peak := float64(int64(1)<<(bitDepth-1) - 1)
	data := make([]int, len(buf.Samples))
	for i, s := range buf.Samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		data[i] = int(math.Round(v * peak))
	}

	encoder := wav.NewEncoder(w, buf.SampleRate, bitDepth, 1, 1)
	err := encoder.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: buf.SampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	})
	if err != nil {
		encoder.Close()
		return fmt.Errorf("failed to encode WAV: %w", err)
	}

	return encoder.Close()
}

// SaveWAV writes buf to a 16-bit WAV file
func SaveWAV(path string, buf *AudioBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := WriteWAV(f, buf, 16); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
