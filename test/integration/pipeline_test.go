package integration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danieljhkim/rapidstruct/internal/engine"
	"github.com/danieljhkim/rapidstruct/internal/voxel"
)

func TestPipeline_FullRunWithVoxelGeometry(t *testing.T) {
	env := setupTestEngine(t)
	set := env.loadSet(t, "/data/hn.yaml", headNeckDoc)
	p := defaultProtocol(t)
	ctx := context.Background()

	result, err := env.eng.Run(ctx, &engine.RunRequest{Context: set.Context(), Protocol: p})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Outcome != engine.PhaseDone {
		t.Fatalf("Outcome = %s, want done", result.Outcome)
	}
	if len(env.notifier.Prompts) != 0 {
		t.Errorf("nothing is skipped, yet Confirm was called: %v", env.notifier.Prompts)
	}

	want := []string{
		"Body", "PTV_7000", "PTV_6125", "PTV_5600",
		"Parotid L", "Parotid R", "Pharynx", "Brainstem", "Spinal Cord",
	}
	want = append(want, p.Terminals()...)
	if diff := cmp.Diff(want, set.Structures.Names()); diff != "" {
		t.Errorf("final structure set mismatch (-want +got):\n%s", diff)
	}

	// PTV_7000 lies well inside the contracted body
	if got := voxelRegion(t, set, "PTV_HIGH").Len(); got != 1000 {
		t.Errorf("PTV_HIGH voxels = %d, want 1000", got)
	}
	// 20³ shell minus the 10³ core
	intDVH := voxelRegion(t, set, "PTV_INT_DVH")
	if got := intDVH.Len(); got != 7000 {
		t.Errorf("PTV_INT_DVH voxels = %d, want 7000", got)
	}
	if intDVH.Contains(voxel.Index{X: 25, Y: 25, Z: 25}) {
		t.Error("PTV_INT_DVH overlaps PTV_HIGH")
	}

	// the optimisation ring keeps a gap to the high-dose PTV
	intOPT := voxelRegion(t, set, "PTV_INT_OPT")
	if intOPT.Len() >= intDVH.Len() {
		t.Errorf("PTV_INT_OPT (%d) should be smaller than PTV_INT_DVH (%d)", intOPT.Len(), intDVH.Len())
	}
	if intOPT.Contains(voxel.Index{X: 19, Y: 25, Z: 25}) {
		t.Error("PTV_INT_OPT touches PTV_HIGH")
	}

	prv := voxelRegion(t, set, "Spinal Cord 5PRV")
	if prv.Len() <= voxelRegion(t, set, "Spinal Cord").Len() {
		t.Error("Spinal Cord 5PRV is not larger than the cord")
	}

	// save, reload and compare
	if _, err := env.files.Save("/data/hn-out.yaml", set); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	again, err := env.files.Load("/data/hn-out.yaml")
	if err != nil {
		t.Fatalf("Load() of saved set error = %v", err)
	}
	if diff := cmp.Diff(set.Structures.Names(), again.Structures.Names()); diff != "" {
		t.Errorf("saved structure set mismatch (-before +after):\n%s", diff)
	}
	if got := voxelRegion(t, again, "PTV_INT_OPT").Len(); got != intOPT.Len() {
		t.Errorf("reloaded PTV_INT_OPT voxels = %d, want %d", got, intOPT.Len())
	}
}

func TestPipeline_SecondRunAborts(t *testing.T) {
	env := setupTestEngine(t)
	set := env.loadSet(t, "/data/hn.yaml", headNeckDoc)
	p := defaultProtocol(t)
	ctx := context.Background()

	if _, err := env.eng.Run(ctx, &engine.RunRequest{Context: set.Context(), Protocol: p}); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	before := set.Structures.Names()

	result, err := env.eng.Run(ctx, &engine.RunRequest{Context: set.Context(), Protocol: p})
	if !errors.Is(err, engine.ErrConflict) {
		t.Errorf("second Run() error = %v, want ErrConflict", err)
	}
	if result.Outcome != engine.PhaseAborted {
		t.Errorf("Outcome = %s, want aborted", result.Outcome)
	}
	if diff := cmp.Diff(before, set.Structures.Names()); diff != "" {
		t.Errorf("aborted run changed the structure set (-before +after):\n%s", diff)
	}
}

func TestPipeline_HighResolutionPharynx(t *testing.T) {
	env := setupTestEngine(t)
	// the same pharynx box on the 1mm sub-grid
	doc := strings.Replace(headNeckDoc,
		"{name: Pharynx, category: avoidance, spacing: 2, boxes: [[22, 36, 20, 27, 44, 30]]}",
		"{name: Pharynx, category: avoidance, spacing: 2, high_resolution: true, boxes: [[44, 72, 40, 55, 89, 61]]}", 1)
	set := env.loadSet(t, "/data/hn.yaml", doc)

	result, err := env.eng.Run(context.Background(), &engine.RunRequest{Context: set.Context(), Protocol: defaultProtocol(t)})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	oar := voxelRegion(t, set, "OAR_Pharynx")
	if !oar.HighResolution() {
		t.Fatal("OAR_Pharynx should be high resolution")
	}
	pharynx := voxelRegion(t, set, "Pharynx")
	if oar.Len() == 0 || oar.Len() >= pharynx.Len() {
		t.Errorf("OAR_Pharynx voxels = %d, want between 0 and %d", oar.Len(), pharynx.Len())
	}
	// PTV_5600 ends at base index 39, so sub-grid y=79 is inside PTV_ALL
	if oar.Contains(voxel.Index{X: 50, Y: 79, Z: 50}) {
		t.Error("OAR_Pharynx overlaps PTV_ALL")
	}
	if !oar.Contains(voxel.Index{X: 50, Y: 80, Z: 50}) {
		t.Error("OAR_Pharynx lost pharynx outside PTV_ALL")
	}

	var promoted string
	for _, s := range result.Report.Steps {
		if s.Output == "OAR_Pharynx" {
			promoted = s.Promoted
		}
	}
	if promoted != "PTV_ALL" {
		t.Errorf("Promoted = %q, want PTV_ALL", promoted)
	}
}

func TestPipeline_ReportPersisted(t *testing.T) {
	env := setupTestEngine(t)
	set := env.loadSet(t, "/data/hn.yaml", headNeckDoc)

	result, err := env.eng.Run(context.Background(), &engine.RunRequest{
		Context:     set.Context(),
		Protocol:    defaultProtocol(t),
		WriteReport: true,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, ok := env.fs.files[env.paths.ReportPath(result.RunID)]; !ok {
		t.Fatalf("report not written to %s", env.paths.ReportPath(result.RunID))
	}

	r, err := env.eng.LoadReport(result.RunID)
	if err != nil {
		t.Fatalf("LoadReport() error = %v", err)
	}
	if r.InputDigest != set.Digest {
		t.Errorf("InputDigest = %q, want %q", r.InputDigest, set.Digest)
	}
	if r.PatientID != "HN-TEST-01" {
		t.Errorf("PatientID = %q", r.PatientID)
	}
	if diff := cmp.Diff(result.Report.Removed, r.Removed); diff != "" {
		t.Errorf("removed mismatch (-run +loaded):\n%s", diff)
	}
}
