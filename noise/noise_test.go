// Public domain.

package noise_test

import (
	"math"
	"testing"

	"github.com/LuluAgazie/PINT/noise"
	"github.com/LuluAgazie/PINT/timescale"
	"github.com/LuluAgazie/PINT/toa"
)

const f0 = 61.485476554

func TestRoundTrip(t *testing.T) {
	in := noise.Param{
		Name:  "JUMP1",
		Value: 3.7e-4,
		Rep:   noise.PhaseJitter,
		Scale: timescale.TCB,
	}
	out, err := noise.Convert(in, noise.TimeEquad, f0, timescale.TDB)
	if err != nil {
		t.Fatal(err)
	}
	if out.Rep != noise.TimeEquad || out.Scale != timescale.TDB {
		t.Fatal("converted tags:", out.Rep, out.Scale)
	}
	back, err := noise.Convert(out, noise.PhaseJitter, f0, timescale.TCB)
	if err != nil {
		t.Fatal(err)
	}
	if rel := math.Abs(back.Value-in.Value) / in.Value; rel > 1e-10 {
		t.Fatal("round trip relative error:", rel)
	}
	t.Log("provenance:", back.Provenance)
}

func TestProvenanceWarning(t *testing.T) {
	in := noise.Param{Name: "EQ_gasp", Value: 1e-6, Rep: noise.TimeEquad}
	out, err := noise.Convert(in, noise.PhaseJitter, f0, timescale.TDB)
	w, ok := err.(*noise.ProvenanceWarning)
	if !ok {
		t.Fatal("expected ProvenanceWarning, got", err)
	}
	if w.Name != "EQ_gasp" {
		t.Fatal("warning names:", w.Name)
	}
	// the result is still usable: representation converted, target scale
	// applied, no rate correction
	if out.Value != 1e-6*f0 {
		t.Fatal("untagged conversion value:", out.Value)
	}
	if out.Scale != timescale.TDB {
		t.Fatal("untagged conversion scale:", out.Scale)
	}
}

func TestConvertBadFrequency(t *testing.T) {
	in := noise.Param{Name: "X", Value: 1, Rep: noise.PhaseJitter, Scale: timescale.TDB}
	for _, bad := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := noise.Convert(in, noise.TimeEquad, bad, timescale.TDB); err == nil {
			t.Fatal("expected error for f0 =", bad)
		}
	}
}

func TestScaledErrors(t *testing.T) {
	set, err := toa.NewSet([]toa.TOA{
		{MJD: 53750, Err: 1e-5, Group: "gasp"},
		{MJD: 53751, Err: 1e-5, Group: "puppi"},
		{MJD: 53752, Err: 2e-5},
	})
	if err != nil {
		t.Fatal(err)
	}
	m := noise.NewModel(map[string]noise.GroupParams{
		"gasp": {EFAC: 2},
		"puppi": {EQUAD: 3e-5},
	}, noise.GroupParams{})
	got := m.ScaledErrors(set)
	want := []float64{
		2e-5,
		math.Sqrt(1e-10 + 9e-10),
		2e-5, // default group, EFAC treated as 1
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-18 {
			t.Fatal("observation", i, ":", got[i], "want", want[i])
		}
	}
}

func TestNilModel(t *testing.T) {
	set, err := toa.NewSet([]toa.TOA{{MJD: 53750, Err: 1e-5}})
	if err != nil {
		t.Fatal(err)
	}
	var m *noise.Model
	if got := m.ScaledErrors(set); got[0] != 1e-5 {
		t.Fatal("nil model should pass errors through:", got[0])
	}
}
