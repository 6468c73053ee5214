package export

import (
	"bytes"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/cxd309/pitch-engine/internal/engine"
	"github.com/cxd309/pitch-engine/internal/service"
)

func sampleLog(withTrajectory bool) engine.SessionLog {
	dv := 1.25
	a := engine.CalibrationLog{
		PitchID: "a", Cd: 0.33, Cl: 0.25, Delta: 0.007,
		X1: 7.5, Y1: 0.9, Z1: 0.01, X2: 3.8, Y2: 1.1, Z2: 0.1, X3: 0.43, Y3: 1.04, Z3: 0.19,
		VelocityDelta: &dv, WithinTolerance: true, Iterations: 26, Evaluations: 217,
	}
	b := a
	b.PitchID, b.VelocityDelta = "b", nil
	if withTrajectory {
		a.Trajectory = []engine.TrajectoryPoint{
			{T: 0, X: 11.3, Y: 0.6, Z: -0.05, VX: -35.8},
			{T: 0.159, X: 5.8, Y: 0.9, Z: 0.07, VX: -33.6},
			{T: 0.318, X: 0.43, Y: 1.04, Z: 0.19, VX: -31.5},
		}
	}
	return engine.SessionLog{
		Meta:         engine.SessionMeta{SessionID: "s"},
		Calibrations: []engine.CalibrationLog{a, b},
		Comparisons: []engine.ComparisonLog{
			{A: "a", B: "b", Comparison: service.Comparison{Half: 0.9, Last: 0.1, Diff: 0}},
		},
	}
}

func reopen(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func rows(t *testing.T, f *excelize.File, sheet string) [][]string {
	t.Helper()
	r, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows(%s): %v", sheet, err)
	}
	return r
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sampleLog(true)); err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	f := reopen(t, buf.Bytes())

	sheets := f.GetSheetList()
	want := []string{SheetCalibrations, SheetComparisons, SheetTrajectories}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, sheets[i], want[i])
		}
	}

	cal := rows(t, f, SheetCalibrations)
	if len(cal) != 3 {
		t.Fatalf("calibration rows = %d, want 3", len(cal))
	}
	if cal[0][0] != "pitch_id" || cal[0][12] != "z_3" {
		t.Errorf("header = %v", cal[0])
	}
	if cal[1][0] != "a" {
		t.Errorf("first pitch = %q", cal[1][0])
	}
	if cd, err := strconv.ParseFloat(cal[1][1], 64); err != nil || cd != 0.33 {
		t.Errorf("c_d cell = %q", cal[1][1])
	}
	if cal[1][13] != "1.25" {
		t.Errorf("velocity delta cell = %q", cal[1][13])
	}

	cmp := rows(t, f, SheetComparisons)
	if len(cmp) != 2 || cmp[1][0] != "a" || cmp[1][1] != "b" || cmp[1][2] != "0.9" {
		t.Errorf("comparison rows = %v", cmp)
	}

	traj := rows(t, f, SheetTrajectories)
	if len(traj) != 4 {
		t.Errorf("trajectory rows = %d, want header + 3", len(traj))
	}
}

func TestWriteWorkbookWithoutTrajectories(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWorkbook(&buf, sampleLog(false)); err != nil {
		t.Fatal(err)
	}
	f := reopen(t, buf.Bytes())
	for _, s := range f.GetSheetList() {
		if s == SheetTrajectories || s == "Sheet1" {
			t.Errorf("unexpected sheet %q", s)
		}
	}
}

func TestSaveWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.xlsx")
	if err := SaveWorkbook(path, sampleLog(false)); err != nil {
		t.Fatalf("SaveWorkbook: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	v, err := f.GetCellValue(SheetCalibrations, "A3")
	if err != nil || v != "b" {
		t.Errorf("A3 = %q, %v", v, err)
	}
}
