package table

import (
	"errors"
	"math"
	"testing"

	"goimpute/domain/core"
)

func TestNewRejectsBadShapes(t *testing.T) {
	_, err := New(
		Column{Key: "a", Type: TypeNumeric, Values: []float64{1, 2}},
		Column{Key: "b", Type: TypeNumeric, Values: []float64{1}},
	)
	if !errors.Is(err, core.ErrColumnLengthMismatch) {
		t.Errorf("unequal lengths: got %v, want ErrColumnLengthMismatch", err)
	}

	_, err = New(
		Column{Key: "a", Type: TypeNumeric, Values: []float64{1}},
		Column{Key: "a", Type: TypeNumeric, Values: []float64{2}},
	)
	if err == nil {
		t.Error("duplicate keys must be rejected")
	}

	_, err = New(Column{Key: "", Type: TypeNumeric, Values: []float64{1}})
	if err == nil {
		t.Error("empty key must be rejected")
	}
}

func TestDetectMissing(t *testing.T) {
	nan := math.NaN()
	ds, err := New(Column{Key: "y", Type: TypeNumeric, Values: []float64{1, nan, 3, nan}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	mask, err := DetectMissing(ds, "y")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(mask) != 4 {
		t.Fatalf("mask has %d entries, want one per row", len(mask))
	}
	want := []bool{false, true, false, true}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("mask[%d] = %v, want %v", i, mask[i], want[i])
		}
	}
	if mask.Count() != 2 {
		t.Errorf("count = %d, want 2", mask.Count())
	}
	if rows := mask.MissingRows(); len(rows) != 2 || rows[0] != 1 || rows[1] != 3 {
		t.Errorf("missing rows = %v, want [1 3]", rows)
	}
	if rows := mask.ObservedRows(); len(rows) != 2 || rows[0] != 0 || rows[1] != 2 {
		t.Errorf("observed rows = %v, want [0 2]", rows)
	}

	if _, err := DetectMissing(ds, "ghost"); !errors.Is(err, core.ErrInvalidColumn) {
		t.Errorf("unknown column: got %v, want ErrInvalidColumn", err)
	}
}

func TestMissingRate(t *testing.T) {
	nan := math.NaN()
	ds, _ := New(Column{Key: "y", Type: TypeNumeric, Values: []float64{1, nan, 3, nan}})
	rate, err := MissingRate(ds, "y")
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rate != 0.5 {
		t.Errorf("rate = %v, want 0.5", rate)
	}
}

func TestWithValuesCopyOnWrite(t *testing.T) {
	ds, err := New(
		Column{Key: "a", Type: TypeNumeric, Values: []float64{1, 2}},
		Column{Key: "b", Type: TypeNumeric, Values: []float64{3, 4}},
	)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	next, err := ds.WithValues("a", []float64{9, 9})
	if err != nil {
		t.Fatalf("with values: %v", err)
	}

	orig, _ := ds.Values("a")
	if orig[0] != 1 || orig[1] != 2 {
		t.Error("WithValues must not mutate the receiver")
	}
	got, _ := next.Values("a")
	if got[0] != 9 || got[1] != 9 {
		t.Errorf("replacement not applied: %v", got)
	}

	// Returned slices are copies, not views.
	got[0] = 100
	again, _ := next.Values("a")
	if again[0] != 9 {
		t.Error("Values must return a copy of the column storage")
	}

	if _, err := ds.WithValues("a", []float64{1}); !errors.Is(err, core.ErrColumnLengthMismatch) {
		t.Errorf("short replacement: got %v, want ErrColumnLengthMismatch", err)
	}
}

func TestColumnObserved(t *testing.T) {
	nan := math.NaN()
	col := Column{Key: "y", Type: TypeNumeric, Values: []float64{1, nan, 3}}
	if col.ObservedCount() != 2 {
		t.Errorf("observed count = %d, want 2", col.ObservedCount())
	}
	obs := col.Observed()
	if len(obs) != 2 || obs[0] != 1 || obs[1] != 3 {
		t.Errorf("observed = %v, want [1 3]", obs)
	}
	if !col.IsMissing(1) || col.IsMissing(0) {
		t.Error("IsMissing disagrees with NaN positions")
	}
}

func TestFingerprintStability(t *testing.T) {
	nan := math.NaN()
	build := func() *Dataset {
		ds, err := New(
			Column{Key: "a", Type: TypeNumeric, Values: []float64{1, nan, 3}},
			Column{Key: "b", Type: TypeBinary, Values: []float64{0, 1, 1}},
		)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		return ds
	}

	if build().Fingerprint() != build().Fingerprint() {
		t.Error("identical datasets must fingerprint identically, NaNs included")
	}

	other, _ := build().WithValues("a", []float64{1, 2, 3})
	if other.Fingerprint() == build().Fingerprint() {
		t.Error("different values must fingerprint differently")
	}
}
