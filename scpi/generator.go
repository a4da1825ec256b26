package scpi

import (
	"fmt"
	"strconv"
)

// Generator steers a CW signal generator. Program applies the full setup
// sequence for a new tone; Disable drops RF output and is safe to call at
// any point, including as a cleanup action after a failed run.
type Generator struct {
	Client *Client
}

// NewGenerator returns a generator handle speaking to addr (host:port,
// conventionally port 5025 for raw SCPI).
func NewGenerator(c *Client) *Generator {
	return &Generator{Client: c}
}

// Program disables output, selects CW mode, sets the carrier frequency in
// GHz, then re-enables output. The sequence order matters: the output stays
// off while the frequency moves.
func (g *Generator) Program(freqGHz float64) error {
	return g.Client.Send(
		"OUTP OFF",
		"FREQ:MODE CW",
		fmt.Sprintf("FREQ %sGHZ", strconv.FormatFloat(freqGHz, 'f', -1, 64)),
		"OUTP ON",
	)
}

// Disable turns the RF output off.
func (g *Generator) Disable() error {
	return g.Client.Send("OUTP OFF")
}
