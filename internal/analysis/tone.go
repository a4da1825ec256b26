// Package analysis verifies acquisitions after the fact: did the
// calibration tone land on the requested channel, and how clean is the
// cross-correlation phase.
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ToneCheck summarizes where the calibration tone landed in one auto
// spectrum.
type ToneCheck struct {
	PeakChan    int
	PeakPower   float64
	MedianPower float64
	// PeakRatio is peak over median power, a crude tone-to-floor measure.
	PeakRatio float64
	OnChannel bool
}

// CheckTone locates the peak of an auto-correlation spectrum and compares
// it against the channel the generator was told to hit.
func CheckTone(auto []float64, signalChan int) (ToneCheck, error) {
	if len(auto) == 0 {
		return ToneCheck{}, fmt.Errorf("empty spectrum")
	}

	peak := floats.MaxIdx(auto)

	sorted := append([]float64{}, auto...)
	sort.Float64s(sorted)
	median := stat.Quantile(0.5, stat.Empirical, sorted, nil)

	c := ToneCheck{
		PeakChan:    peak,
		PeakPower:   auto[peak],
		MedianPower: median,
		OnChannel:   peak == signalChan,
	}
	if median > 0 {
		c.PeakRatio = auto[peak] / median
	}
	return c, nil
}

// SidebandRejection returns the power ratio in dB between the target and
// image sideband at the peak channel of the target spectrum.
func SidebandRejection(target, image []float64) (float64, error) {
	if len(target) == 0 || len(target) != len(image) {
		return 0, fmt.Errorf("spectra lengths differ: %d vs %d", len(target), len(image))
	}
	peak := floats.MaxIdx(target)
	if target[peak] <= 0 || image[peak] <= 0 {
		return 0, fmt.Errorf("non-positive power at peak channel %d", peak)
	}
	return 10 * math.Log10(target[peak]/image[peak]), nil
}

// CrossPhase returns the mean and standard deviation (degrees) of the
// cross-correlation phase across channels.
func CrossPhase(cross []complex128) (meanDeg, stdDeg float64, err error) {
	if len(cross) == 0 {
		return 0, 0, fmt.Errorf("empty cross spectrum")
	}
	deg := make([]float64, len(cross))
	for i, v := range cross {
		deg[i] = cmplx.Phase(v) * 180 / math.Pi
	}
	meanDeg = stat.Mean(deg, nil)
	if len(deg) > 1 {
		stdDeg = stat.StdDev(deg, nil)
	}
	return meanDeg, stdDeg, nil
}
