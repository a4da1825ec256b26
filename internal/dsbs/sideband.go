package dsbs

import (
	"errors"
	"fmt"
	"strings"
)

// Sideband identifies which sideband a calibration tone is placed in.
type Sideband string

const (
	USB Sideband = "USB"
	LSB Sideband = "LSB"
)

var ErrInvalidSideband = errors.New("invalid sideband")

// ParseSideband converts a string to a Sideband, accepting any case.
func ParseSideband(s string) (Sideband, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USB":
		return USB, nil
	case "LSB":
		return LSB, nil
	default:
		return "", fmt.Errorf("%w: %q (want USB or LSB)", ErrInvalidSideband, s)
	}
}

// Sign returns the direction of the channel offset from the LO: +1 for USB,
// -1 for LSB.
func (sb Sideband) Sign() (float64, error) {
	switch sb {
	case USB:
		return +1, nil
	case LSB:
		return -1, nil
	default:
		return 0, fmt.Errorf("%w: %q (want USB or LSB)", ErrInvalidSideband, string(sb))
	}
}

// ValidIntegTimes lists the integration times (in ms) the correlator
// firmware accepts.
var ValidIntegTimes = []int{100, 200, 500, 1000}

// ValidIntegTime reports whether ms is an integration time the correlator
// firmware accepts.
func ValidIntegTime(ms int) bool {
	for _, v := range ValidIntegTimes {
		if ms == v {
			return true
		}
	}
	return false
}
