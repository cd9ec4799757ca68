package pitch

import (
	"github.com/0xlemi/fretlab/internal/audio"
)

// AutocorrelationDetector estimates the fundamental from the normalised
// autocorrelation of the window's two halves
type AutocorrelationDetector struct {
	params Params
	corr   []float64
}

func NewAutocorrelationDetector(p Params) *AutocorrelationDetector {
	return &AutocorrelationDetector{params: p}
}

// Detect analyses one window. It is not safe for concurrent use; each
// tracker session owns its detector.
func (d *AutocorrelationDetector) Detect(buffer *audio.AudioBuffer) (Estimate, error) {
	est, ok, err := measure(buffer, d.params)
	if !ok {
		return est, err
	}

	corr := d.correlate(buffer.Samples)
	lag, best := d.pickLag(corr)

	est.Correlation = clamp01(best)
	if lag <= 0 || best <= d.params.Threshold {
		est.Reason = ReasonUnvoiced
		return est, nil
	}

	frequency := float64(buffer.SampleRate) / refineLag(corr, lag)
	if !d.params.inRange(frequency) {
		est.Reason = ReasonOutOfRange
		return est, nil
	}

	est.Frequency = frequency
	est.Voiced = true
	return est, nil
}

// correlate fills r(i) = Σ x[j]x[j+i] / mean(Σ x[j]², Σ x[j+i]²) for every
// lag in the first half of the window
func (d *AutocorrelationDetector) correlate(samples []float32) []float64 {
	half := len(samples) / 2
	if cap(d.corr) < half {
		d.corr = make([]float64, half)
	}
	corr := d.corr[:half]

	for i := 0; i < half; i++ {
		var c, s float64
		for j := 0; j < half; j++ {
			a := float64(samples[j])
			b := float64(samples[j+i])
			c += a * b
			s += a*a + b*b
		}
		if s == 0 {
			corr[i] = 0
			continue
		}
		corr[i] = c / (s / 2)
	}

	return corr
}

// pickLag skips the lobe around lag 0 and returns the first peak above the
// threshold, falling back to the strongest peak seen
func (d *AutocorrelationDetector) pickLag(corr []float64) (lag int, best float64) {
	i := 1
	for i < len(corr) && corr[i] > 0 {
		i++
	}

	for ; i < len(corr)-1; i++ {
		if corr[i] <= 0 || corr[i] < corr[i-1] || corr[i] < corr[i+1] {
			continue
		}
		if corr[i] > d.params.Threshold {
			return i, corr[i]
		}
		if corr[i] > best {
			lag, best = i, corr[i]
		}
	}

	return lag, best
}

// refineLag places the peak between samples with a parabola through its
// neighbours
func refineLag(corr []float64, lag int) float64 {
	if lag <= 0 || lag >= len(corr)-1 {
		return float64(lag)
	}

	prev, current, next := corr[lag-1], corr[lag], corr[lag+1]
	denom := prev - 2*current + next
	if denom == 0 {
		return float64(lag)
	}

	delta := 0.5 * (prev - next) / denom
	if delta < -0.5 || delta > 0.5 {
		return float64(lag)
	}
	return float64(lag) + delta
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
