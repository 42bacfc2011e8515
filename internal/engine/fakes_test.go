package engine

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/danieljhkim/rapidstruct/internal/clock"
	"github.com/danieljhkim/rapidstruct/internal/config"
	"github.com/danieljhkim/rapidstruct/internal/fsops"
	"github.com/danieljhkim/rapidstruct/internal/notify"
	"github.com/danieljhkim/rapidstruct/internal/protocol"
	"github.com/danieljhkim/rapidstruct/internal/region"
)

// fakeRegion is the region handle of fakeAlgebra. Inputs are labelled with
// their structure name; results are labelled with the expression that
// produced them.
type fakeRegion struct {
	label  string
	high   bool
	volume float64
}

// algebraCall records one algebra operation and the resolution of each
// operand it received.
type algebraCall struct {
	Op      string
	Labels  []string
	HighRes []bool
}

// fakeAlgebra is a deterministic region.Algebra that records its calls.
type fakeAlgebra struct {
	calls []algebraCall

	// failOn maps an expression such as "margin(Brainstem)" to the error
	// the operation returns
	failOn map[string]error

	// panicOn names an expression whose operation panics
	panicOn string
}

func newFakeAlgebra() *fakeAlgebra {
	return &fakeAlgebra{failOn: map[string]error{}}
}

func asFake(r region.Region) *fakeRegion {
	f, ok := r.(*fakeRegion)
	if !ok {
		panic(fmt.Sprintf("unexpected region %T", r))
	}
	return f
}

func (a *fakeAlgebra) apply(op string, volume func(v ...float64) float64, rs ...region.Region) (region.Region, error) {
	call := algebraCall{Op: op}
	var vols []float64
	for _, r := range rs {
		f := asFake(r)
		call.Labels = append(call.Labels, f.label)
		call.HighRes = append(call.HighRes, f.high)
		vols = append(vols, f.volume)
	}
	a.calls = append(a.calls, call)

	expr := op + "(" + strings.Join(call.Labels, ",") + ")"
	if expr == a.panicOn {
		panic("corrupt contour in " + expr)
	}
	if err, ok := a.failOn[expr]; ok {
		return nil, err
	}
	return &fakeRegion{label: expr, high: call.HighRes[0], volume: volume(vols...)}, nil
}

func (a *fakeAlgebra) Margin(r region.Region, mm float64) (region.Region, error) {
	return a.apply("margin", func(v ...float64) float64 { return v[0] + mm }, r)
}

func (a *fakeAlgebra) Union(x, y region.Region) (region.Region, error) {
	return a.apply("union", func(v ...float64) float64 { return v[0] + v[1] }, x, y)
}

func (a *fakeAlgebra) Intersect(x, y region.Region) (region.Region, error) {
	return a.apply("intersect", func(v ...float64) float64 { return min(v[0], v[1]) }, x, y)
}

func (a *fakeAlgebra) Subtract(x, y region.Region) (region.Region, error) {
	return a.apply("subtract", func(v ...float64) float64 { return max(v[0]-v[1], 0) }, x, y)
}

func (a *fakeAlgebra) IsHighResolution(r region.Region) bool {
	return asFake(r).high
}

func (a *fakeAlgebra) PromoteHighResolution(r region.Region) (region.Region, error) {
	f := asFake(r)
	a.calls = append(a.calls, algebraCall{Op: "promote", Labels: []string{f.label}, HighRes: []bool{f.high}})
	return &fakeRegion{label: f.label + "@high", high: true, volume: f.volume}, nil
}

func (a *fakeAlgebra) Volume(r region.Region) float64 {
	return asFake(r).volume
}

// callsOf returns the recorded calls of one operation.
func (a *fakeAlgebra) callsOf(op string) []algebraCall {
	var out []algebraCall
	for _, c := range a.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// countingStore wraps a MemStore and counts mutations.
type countingStore struct {
	*region.MemStore
	inserts int
	removes int
}

func (s *countingStore) Insert(c region.Category, name string, r region.Region) (region.StructureRef, error) {
	s.inserts++
	return s.MemStore.Insert(c, name, r)
}

func (s *countingStore) Remove(ref region.StructureRef) error {
	s.removes++
	return s.MemStore.Remove(ref)
}

// newStore creates a store holding low-resolution inputs of volume 100.
func newStore(t *testing.T, names ...string) *countingStore {
	t.Helper()
	s := region.NewMemStore()
	for _, n := range names {
		if _, err := s.Insert(region.CategoryTarget, n, &fakeRegion{label: n, volume: 100}); err != nil {
			t.Fatalf("Insert(%s) failed: %v", n, err)
		}
	}
	return &countingStore{MemStore: s}
}

func loadProtocol(t *testing.T, name string) *protocol.Protocol {
	t.Helper()
	p, err := protocol.NewRegistry(nil).Get(name)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", name, err)
	}
	return p
}

var testStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// newTestEngine wires an Engine to fakes. Reports go under a temp root.
func newTestEngine(t *testing.T, alg region.Algebra, n notify.Notifier) (*Engine, *config.Paths) {
	t.Helper()
	paths := config.PathsAt(t.TempDir())
	eng := New(alg, n, fsops.NewRealFS(), clock.NewTickingClock(testStart, time.Second), *paths)

	seq := 0
	eng.newID = func() string {
		seq++
		return fmt.Sprintf("run-%d", seq)
	}
	return eng, paths
}

func hostContext(store region.Store) *HostContext {
	return &HostContext{PatientID: "HN-0042", ImageID: "CT_1", Structures: store}
}

var (
	clinicalInputs = []string{"Body", "PTV_7000", "PTV_6125", "PTV_5600"}
	allOARs        = []string{"Parotid L", "Parotid R", "Pharynx", "Brainstem", "Spinal Cord"}
)
