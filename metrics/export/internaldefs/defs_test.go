package internaldefs

import (
	"strings"
	"testing"
)

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDefinitionsAreUnique(t *testing.T) {
	if len(HistogramBounds) != 8 || len(HistogramBoundSuffix) != 8 {
		t.Fatal("expected 8 histogram bounds")
	}
	seen := map[string]bool{}
	ids := map[uint16]bool{}
	for _, def := range CounterDefs {
		if !strings.HasPrefix(def.Name, "exitpass_") || !strings.HasSuffix(def.Name, "_total") {
			t.Fatalf("unexpected counter name %q", def.Name)
		}
		if seen[def.Name] || ids[uint16(def.ID)] {
			t.Fatalf("duplicate counter %q", def.Name)
		}
		seen[def.Name] = true
		ids[uint16(def.ID)] = true
	}
	for _, def := range HistogramDefs {
		if ids[uint16(def.ID)] {
			t.Fatalf("histogram %q reuses a counter id", def.Name)
		}
	}
}
