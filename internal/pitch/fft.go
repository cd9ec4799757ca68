package pitch

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/0xlemi/fretlab/internal/audio"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	peakThreshold   = 0.2 // minimum peak height as fraction of highest peak
	harmonicCount   = 8
	harmonicSpread  = 2   // bins either side of each harmonic
	spectralClarity = 0.5 // share of energy the harmonic series must hold
)

// SpectrumDetector implements pitch detection using FFT peak picking
type SpectrumDetector struct {
	params Params
}

func NewSpectrumDetector(p Params) *SpectrumDetector {
	return &SpectrumDetector{params: p}
}

// Peak represents a peak in the frequency spectrum
type Peak struct {
	Bin       int
	Magnitude float64
	Frequency float64
}

// Detect analyses an audio buffer and returns the fundamental
func (d *SpectrumDetector) Detect(buffer *audio.AudioBuffer) (Estimate, error) {
	est, ok, err := measure(buffer, d.params)
	if !ok {
		return est, err
	}

	// Apply windowing function (Hann window)
	samples := make([]float64, len(buffer.Samples))
	for i, s := range buffer.Samples {
		samples[i] = float64(s)
	}
	window.Apply(samples, window.Hann)

	spectrum := fft.FFTReal(samples)
	magnitudes := make([]float64, len(spectrum)/2)
	for i := range magnitudes {
		magnitudes[i] = cmplx.Abs(spectrum[i])
	}
	binSizeHz := float64(buffer.SampleRate) / float64(len(spectrum))

	peaks := d.findPeaks(magnitudes, binSizeHz)
	if len(peaks) == 0 {
		est.Reason = ReasonUnvoiced
		return est, nil
	}

	fundamental := subharmonic(peaks, peaks[0])
	est.Correlation = harmonicShare(magnitudes, fundamental.Frequency, binSizeHz)
	if est.Correlation < spectralClarity {
		est.Reason = ReasonUnvoiced
		return est, nil
	}

	if !d.params.inRange(fundamental.Frequency) {
		est.Reason = ReasonOutOfRange
		return est, nil
	}

	est.Frequency = fundamental.Frequency
	est.Voiced = true
	return est, nil
}

// findPeaks returns local maxima across the whole half spectrum sorted by
// magnitude, strongest first. Peaks outside the accepted range are kept so
// that they can be reported as out of range.
func (d *SpectrumDetector) findPeaks(magnitudes []float64, binSizeHz float64) []Peak {
	maxMagnitude := 0.0
	for i := 1; i < len(magnitudes); i++ {
		if magnitudes[i] > maxMagnitude {
			maxMagnitude = magnitudes[i]
		}
	}
	if maxMagnitude == 0 {
		return nil
	}

	var peaks []Peak
	for i := 2; i < len(magnitudes)-1; i++ {
		current := magnitudes[i]
		prev := magnitudes[i-1]
		next := magnitudes[i+1]

		if current <= prev || current <= next || current < maxMagnitude*peakThreshold {
			continue
		}

		// Quadratic interpolation for more accurate peak location
		// x = 0.5 * (R[k-1] - R[k+1]) / (R[k-1] - 2*R[k] + R[k+1]) + k
		freq := float64(i) * binSizeHz
		if denom := prev - 2*current + next; denom != 0 {
			freq = (float64(i) + 0.5*(prev-next)/denom) * binSizeHz
		}

		peaks = append(peaks, Peak{Bin: i, Magnitude: current, Frequency: freq})
	}

	sort.Slice(peaks, func(i, j int) bool {
		return peaks[i].Magnitude > peaks[j].Magnitude
	})

	return peaks
}

// subharmonic prefers a peak near half the strongest one. Low guitar strings
// often carry more energy in the second harmonic than in the fundamental.
func subharmonic(peaks []Peak, strongest Peak) Peak {
	half := strongest.Frequency / 2
	for _, p := range peaks {
		if math.Abs(p.Frequency-half) < half*0.03 {
			return p
		}
	}
	return strongest
}

// harmonicShare is the fraction of spectral energy lying on the harmonic
// series of f0
func harmonicShare(magnitudes []float64, f0, binSizeHz float64) float64 {
	total := 0.0
	for i := 1; i < len(magnitudes); i++ {
		total += magnitudes[i] * magnitudes[i]
	}
	if total == 0 || f0 <= 0 {
		return 0
	}

	counted := make(map[int]bool)
	harmonic := 0.0
	for k := 1; k <= harmonicCount; k++ {
		center := int(math.Round(float64(k) * f0 / binSizeHz))
		for b := center - harmonicSpread; b <= center+harmonicSpread; b++ {
			if b < 1 || b >= len(magnitudes) || counted[b] {
				continue
			}
			counted[b] = true
			harmonic += magnitudes[b] * magnitudes[b]
		}
	}

	return harmonic / total
}
