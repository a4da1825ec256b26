package dsbs

import (
	"fmt"
	"strings"
)

// FieldMeta carries the display metadata of one record field, mirroring the
// long_name/units attributes written into archived datasets.
type FieldMeta struct {
	LongName string
	Units    string
}

// Describe returns a one-line summary of a record's shape and its data
// fields with their units.
func (r *Record) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "time=%d chan=%d input_num=%d integ_time=%dms",
		len(r.Time), len(r.Chan), r.InputNum, r.IntegTime)
	for _, name := range []string{"freq", "auto_usb", "auto_lsb", "cross_2sb"} {
		meta := Schema[name]
		fmt.Fprintf(&b, "; %s: %s [%s]", name, meta.LongName, meta.Units)
	}
	return b.String()
}

// Schema maps record field names to their display metadata.
var Schema = map[string]FieldMeta{
	"time":        {LongName: "Measured time"},
	"chan":        {LongName: "Channel number"},
	"signal_chan": {LongName: "Signal channel number"},
	"signal_sb":   {LongName: "Signal sideband (LSB|USB)"},
	"freq":        {LongName: "Signal frequency", Units: "GHz"},
	"auto_usb":    {LongName: "Auto-correlation of USB", Units: "Arbitrary unit"},
	"auto_lsb":    {LongName: "Auto-correlation of LSB", Units: "Arbitrary unit"},
	"cross_2sb":   {LongName: "Cross-correlation between LSB and USB", Units: "Arbitrary unit"},
}
