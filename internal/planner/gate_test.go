package planner

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danieljhkim/rapidstruct/internal/protocol"
	"github.com/danieljhkim/rapidstruct/internal/region"
)

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

func newStore(t *testing.T, names ...string) *countingStore {
	t.Helper()
	s := region.NewMemStore()
	for _, n := range names {
		if _, err := s.Insert(region.CategoryTarget, n, n); err != nil {
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

var (
	clinicalInputs = []string{"Body", "PTV_7000", "PTV_6125", "PTV_5600"}
	allOARs        = []string{"Parotid L", "Parotid R", "Pharynx", "Brainstem", "Spinal Cord"}
)

func TestValidate_AllPresent(t *testing.T) {
	store := newStore(t, append(clinicalInputs, allOARs...)...)
	p := loadProtocol(t, protocol.DefaultName)

	g := Validate(store, p)

	if !g.MandatoryOK() {
		t.Fatalf("expected mandatory checks to pass, findings: %+v", g.Findings)
	}
	if len(g.Findings) != 0 {
		t.Errorf("expected no findings, got %+v", g.Findings)
	}
	if skipped := g.Skipped(); len(skipped) != 0 {
		t.Errorf("expected no skipped branches, got %v", skipped)
	}
	for _, b := range p.Branches() {
		if !g.Enabled(b) {
			t.Errorf("branch %q should be enabled", b)
		}
	}
	if !g.Enabled(protocol.CoreBranch) {
		t.Error("core branch should be enabled")
	}
}

func TestValidate_ReportsEveryMissingMandatoryInput(t *testing.T) {
	store := newStore(t, "Body", "PTV_6125")
	p := loadProtocol(t, protocol.DefaultName)

	g := Validate(store, p)

	if g.MandatoryOK() {
		t.Fatal("expected mandatory checks to fail")
	}
	want := []string{"PTV_7000", "PTV_5600"}
	if diff := cmp.Diff(want, g.MissingMandatory); diff != "" {
		t.Errorf("MissingMandatory mismatch (-want +got):\n%s", diff)
	}

	fatal := g.FatalFindings()
	if len(fatal) != 2 {
		t.Fatalf("expected 2 fatal findings, got %d", len(fatal))
	}
	if fatal[0].Message != "'PTV_7000' not found! Exiting script" {
		t.Errorf("unexpected message: %q", fatal[0].Message)
	}
	if store.inserts != 0 || store.removes != 0 {
		t.Errorf("gate mutated store: %d inserts, %d removes", store.inserts, store.removes)
	}
}

func TestValidate_ExistingMandatoryOutputAborts(t *testing.T) {
	store := newStore(t, append(clinicalInputs, "PTV_HIGH")...)
	p := loadProtocol(t, protocol.DefaultName)

	g := Validate(store, p)

	if g.MandatoryOK() {
		t.Fatal("expected existing PTV_HIGH to abort")
	}
	if diff := cmp.Diff([]string{"PTV_HIGH"}, g.Collisions); diff != "" {
		t.Errorf("Collisions mismatch (-want +got):\n%s", diff)
	}
	want := "'PTV_HIGH' already exists! Please delete or rename 'PTV_HIGH' and re-run script."
	if got := g.FatalFindings()[0].Message; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
	if g.Enabled(protocol.CoreBranch) {
		t.Error("core branch must not be enabled after a collision")
	}
}

func TestValidate_MissingOptionalInputSkipsBranch(t *testing.T) {
	store := newStore(t, append(clinicalInputs, "Parotid R", "Pharynx", "Brainstem", "Spinal Cord")...)
	p := loadProtocol(t, protocol.DefaultName)

	g := Validate(store, p)

	if !g.MandatoryOK() {
		t.Fatalf("unexpected abort: %+v", g.FatalFindings())
	}

	want := Skip(ReasonMissingInput, "Parotid L")
	if got := g.Decisions["Parotid L OAR"]; got != want {
		t.Errorf("Decisions[Parotid L OAR] = %v, want %v", got, want)
	}
	if got := g.OptionalDecisions["Parotid L"]; got != want {
		t.Errorf("OptionalDecisions[Parotid L] = %v, want %v", got, want)
	}
	if !g.OptionalDecisions["Parotid R"].Enabled {
		t.Error("Parotid R should be enabled")
	}
	if diff := cmp.Diff([]string{"Parotid L OAR"}, g.Skipped()); diff != "" {
		t.Errorf("Skipped mismatch (-want +got):\n%s", diff)
	}

	if len(g.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %+v", g.Findings)
	}
	f := g.Findings[0]
	if f.Fatal || f.Kind != FindingMissingOptional {
		t.Errorf("unexpected finding: %+v", f)
	}
	if f.Message != "'Parotid L' not found! 'Parotid L OAR' will not be created." {
		t.Errorf("unexpected message: %q", f.Message)
	}
}

func TestValidate_ExistingOptionalOutputSkipsBranch(t *testing.T) {
	store := newStore(t, append(clinicalInputs, "PTV_INT_DVH", "Brainstem", "Brainstem 3PRV")...)
	p := loadProtocol(t, protocol.DefaultName)

	g := Validate(store, p)

	if !g.MandatoryOK() {
		t.Fatalf("optional collisions must not abort: %+v", g.FatalFindings())
	}
	for _, branch := range []string{"PTV_INT_DVH", "Brainstem 3PRV"} {
		want := Skip(ReasonOutputExists, branch)
		if got := g.Decisions[branch]; got != want {
			t.Errorf("Decisions[%s] = %v, want %v", branch, got, want)
		}
		if got := g.CollisionDecisions[branch]; got != want {
			t.Errorf("CollisionDecisions[%s] = %v, want %v", branch, got, want)
		}
	}
	if !g.CollisionDecisions["PTV_INT_OPT"].Enabled {
		t.Error("PTV_INT_OPT should not be marked as a collision")
	}

	var messages []string
	for _, f := range g.Findings {
		if f.Kind == FindingOptionalCollision {
			messages = append(messages, f.Message)
		}
	}
	want := []string{
		"'PTV_INT_DVH' already exists! 'PTV_INT_DVH' will not be re-created.",
		"'Brainstem 3PRV' already exists! 'Brainstem 3PRV' will not be re-created.",
	}
	if diff := cmp.Diff(want, messages); diff != "" {
		t.Errorf("collision messages mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_IntermediateCollisionInBranch(t *testing.T) {
	store := newStore(t, append(clinicalInputs, "PTV_HIGH+3mm")...)
	p := loadProtocol(t, protocol.DefaultName)

	g := Validate(store, p)

	want := Skip(ReasonOutputExists, "PTV_HIGH+3mm")
	if got := g.Decisions["PTV_INT_OPT"]; got != want {
		t.Errorf("Decisions[PTV_INT_OPT] = %v, want %v", got, want)
	}
}

func TestValidate_SkipPropagatesToDependentBranch(t *testing.T) {
	p, err := protocol.Parse([]byte(`
name: chained
inputs: [Body]
optional_inputs: [Lens L]
steps:
  - {output: Lens L PRV, category: avoidance, operation: margin, operands: [Lens L], margin: 2, branch: lens}
  - {output: Lens ring, category: control, operation: subtract, operands: [Body, Lens L PRV], branch: ring}
`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	store := newStore(t, "Body")

	g := Validate(store, p)

	if got := g.Decisions["ring"]; got != Skip(ReasonMissingInput, "lens") {
		t.Errorf("Decisions[ring] = %v, want skip(missing-input: lens)", got)
	}
	last := g.Findings[len(g.Findings)-1]
	if last.Kind != FindingDependencySkipped || last.Message != "'lens' is skipped! 'Lens ring' will not be created." {
		t.Errorf("unexpected finding: %+v", last)
	}
}

func TestValidate_InterleavedBranches(t *testing.T) {
	interleaved := `
name: interleaved
inputs: [Body]
optional_inputs: [Cord]
steps:
  - {output: B_first, category: control, operation: margin, operands: [Body], margin: -2, branch: B}
  - {output: A_out, category: avoidance, operation: margin, operands: [Cord], margin: 5, branch: A}
  - {output: B_second, category: control, operation: subtract, operands: [B_first, A_out], branch: B}
`
	// A and B feed each other
	mutual := `
name: mutual
inputs: [Body]
optional_inputs: [Cord]
steps:
  - {output: A_first, category: avoidance, operation: margin, operands: [Cord], margin: 3, branch: A}
  - {output: B_out, category: control, operation: subtract, operands: [Body, A_first], branch: B}
  - {output: A_second, category: avoidance, operation: subtract, operands: [A_first, B_out], branch: A}
`

	tests := []struct {
		name         string
		doc          string
		present      []string
		want         map[string]Decision
		wantFindings []string
	}{
		{
			name:    "later branch enabled, earlier branch follows it",
			doc:     interleaved,
			present: []string{"Body", "Cord"},
			want:    map[string]Decision{"A": Enable(), "B": Enable()},
		},
		{
			name:    "skip reaches a branch that appears first",
			doc:     interleaved,
			present: []string{"Body"},
			want: map[string]Decision{
				"A": Skip(ReasonMissingInput, "Cord"),
				"B": Skip(ReasonMissingInput, "A"),
			},
			wantFindings: []string{
				"'Cord' not found! 'A_out' will not be created.",
				"'A' is skipped! 'B_first', 'B_second' will not be created.",
			},
		},
		{
			name:    "mutual branches both run",
			doc:     mutual,
			present: []string{"Body", "Cord"},
			want:    map[string]Decision{"A": Enable(), "B": Enable()},
		},
		{
			name:    "mutual branches both skip",
			doc:     mutual,
			present: []string{"Body"},
			want: map[string]Decision{
				"A": Skip(ReasonMissingInput, "Cord"),
				"B": Skip(ReasonMissingInput, "A"),
			},
			wantFindings: []string{
				"'Cord' not found! 'A_first', 'A_second' will not be created.",
				"'A' is skipped! 'B_out' will not be created.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			p, err := protocol.Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			store := newStore(t, tt.present...)

			// Execute
			g := Validate(store, p)

			// Verify
			if diff := cmp.Diff(tt.want, g.Decisions); diff != "" {
				t.Errorf("Decisions mismatch (-want +got):\n%s", diff)
			}
			var messages []string
			for _, f := range g.Findings {
				messages = append(messages, f.Message)
			}
			if diff := cmp.Diff(tt.wantFindings, messages); diff != "" {
				t.Errorf("findings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecision_String(t *testing.T) {
	if got := Enable().String(); got != "enabled" {
		t.Errorf("Enable().String() = %q", got)
	}
	if got := Skip(ReasonMissingInput, "Pharynx").String(); got != "skip(missing-input: Pharynx)" {
		t.Errorf("Skip().String() = %q", got)
	}
}
