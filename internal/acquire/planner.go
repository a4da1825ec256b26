// Package acquire runs the two-sideband calibration sequence: plan the
// generator frequency, program the generator, trigger an integration, pull
// the result back and assemble it into a measurement record.
package acquire

import (
	"github.com/obslab/drs4cal/internal/dsbs"
)

// FreqInterval is the channel spacing of the correlator in GHz.
const FreqInterval = 0.02

// PlanFrequency computes the signal generator frequency (GHz) that places a
// tone on signalChan in the requested sideband. The generator sits before a
// multiplier chain, so the sky frequency around the LO is divided by the
// multiplication factor.
func PlanFrequency(signalChan int, sb dsbs.Sideband, loFreq, loMux float64) (float64, error) {
	sign, err := sb.Sign()
	if err != nil {
		return 0, err
	}
	return (loFreq + sign*FreqInterval*float64(signalChan)) / loMux, nil
}
