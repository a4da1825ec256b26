package dsbs

import (
	"strings"
	"testing"
)

func TestDescribe(t *testing.T) {
	rec := makeRecord(t, 10, USB)

	got := rec.Describe()
	for _, want := range []string{
		"time=1", "chan=2", "integ_time=200ms",
		"Auto-correlation of USB", "GHz", "Arbitrary unit",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Describe() = %q, missing %q", got, want)
		}
	}
}
