package dicom

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/odincare/dcmvolume/dicomlog"
)

// Auto-windowing constants. They were tuned on clinical CT/MR data and are
// kept as they are.
const (
	HistSmoothSigma = 0.8

	// The smoothing window is len(hist)/histWindowDivisor buckets, clamped
	// to [1, histMaxWindow].
	histMaxWindow     = 32
	histWindowDivisor = 60

	// Buckets this close to either end are never taken as a peak.
	histEdgeGuard = 8

	// A peak must hold more than total/histPeakDivisor samples.
	histPeakDivisor = 9 * 15
	// Without a peak the ceiling is the last bucket above total/histTailDivisor.
	histTailDivisor = 1024 * 10
)

// buildHistogram counts every sample of every slice. The histogram has
// max+1 buckets.
func buildHistogram(slices []*Slice) ([]float64, int) {
	var maxVal uint16
	total := 0
	for _, s := range slices {
		for _, v := range s.Image {
			if v > maxVal {
				maxVal = v
			}
		}
		total += len(s.Image)
	}
	hist := make([]float64, int(maxVal)+1)
	for _, s := range slices {
		for _, v := range s.Image {
			hist[v]++
		}
	}
	return hist, total
}

// smoothHistogram convolves hist with exp(-|j/w|*sigma) over [-w, w]. Indices
// past either end are clamped to the end bucket.
func smoothHistogram(hist []float64, sigma float64) []float64 {
	n := len(hist)
	w := n / histWindowDivisor
	if w < 1 {
		w = 1
	}
	if w > histMaxWindow {
		w = histMaxWindow
	}
	weights := make([]float64, 2*w+1)
	var sum float64
	for j := -w; j <= w; j++ {
		t := math.Abs(float64(j) / float64(w))
		weights[j+w] = math.Exp(-t * sigma)
		sum += weights[j+w]
	}
	out := make([]float64, n)
	for i := range hist {
		var acc float64
		for j := -w; j <= w; j++ {
			k := i + j
			if k < 0 {
				k = 0
			} else if k >= n {
				k = n - 1
			}
			acc += hist[k] * weights[j+w]
		}
		out[i] = acc / sum
	}
	return out
}

// detectCeiling picks the intensity above which samples are treated as
// bright outliers.
//
// The provisional ceiling is the highest non-empty smoothed bucket. Below
// it the last local maximum carrying enough samples is the brightest tissue
// peak; the line through that peak and the provisional ceiling crosses zero
// where the tissue tail ends. Without such a peak the ceiling is the last
// bucket that is not noise.
func detectCeiling(hs []float64, total int) (int, error) {
	if len(hs) == 0 {
		return 0, nil
	}
	top := len(hs) - 1
	for ; top > histEdgeGuard; top-- {
		if hs[top] > 0 {
			break
		}
	}

	peakMin := float64(total) / histPeakDivisor
	peak := -1
	for i := top - histEdgeGuard; i > histEdgeGuard; i-- {
		iL, iR := i-1, i+1
		for iL >= histEdgeGuard && hs[i] == hs[iL] {
			iL--
		}
		for iR < top-histEdgeGuard && hs[i] == hs[iR] {
			iR++
		}
		if hs[i] > hs[iL] && hs[i] > hs[iR] && hs[i] > peakMin {
			peak = i
			break
		}
	}

	if peak < 0 {
		tailMin := float64(total) / histTailDivisor
		ceiling := 0
		for i := len(hs) - 1; i >= 0; i-- {
			if hs[i] > tailMin {
				ceiling = i
				break
			}
		}
		dicomlog.Vprintf(1, "dicom.detectCeiling: no peak, top %d, ceiling %d", top, ceiling)
		return ceiling, nil
	}

	if peak == top {
		return 0, newError(KindHistogramDetectRidges, "peak %d coincides with top", peak)
	}
	xs := []float64{float64(peak), float64(top)}
	ys := []float64{hs[peak], hs[top]}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if beta == 0 || math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0, newError(KindHistogramDetectRidges, "degenerate slope %v between %d and %d", beta, peak, top)
	}
	x := -alpha / beta
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, newError(KindHistogramDetectRidges, "no zero crossing between %d and %d", peak, top)
	}
	ceiling := int(math.Floor(x))
	dicomlog.Vprintf(1, "dicom.detectCeiling: peak %d (%.2f), top %d (%.2f), ceiling %d", peak, hs[peak], top, hs[top], ceiling)
	return ceiling, nil
}

// Rescale constants: 8 output bits plus 11 bits of fixed point accuracy.
const (
	scaleAccuracyBits = 11
	scaleMin          = 4
)

// scaleForCeiling returns the fixed point factor mapping ceiling to 256.
func scaleForCeiling(ceiling int) (uint64, error) {
	if ceiling <= 0 {
		return 0, newError(KindScaling, "ceiling %d", ceiling)
	}
	scale := uint64(1<<(8+scaleAccuracyBits)) / uint64(ceiling)
	if scale <= scaleMin {
		return 0, newError(KindScaling, "scale %d for ceiling %d", scale, ceiling)
	}
	return scale, nil
}

func rescaleSample(v uint16, scale uint64) byte {
	out := (uint64(v) * scale) >> scaleAccuracyBits
	if out > 255 {
		return 255
	}
	return byte(out)
}
