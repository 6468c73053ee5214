// Package export writes session logs as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cxd309/pitch-engine/internal/engine"
)

// Sheet names.
const (
	SheetCalibrations = "Calibrations"
	SheetComparisons  = "Comparisons"
	SheetTrajectories = "Trajectories"
)

var (
	calibrationHeader = []interface{}{
		"pitch_id", "c_d", "c_l", "delta",
		"x_1", "y_1", "z_1", "x_2", "y_2", "z_2", "x_3", "y_3", "z_3",
		"velocity_delta", "within_tolerance", "iterations", "evaluations",
	}
	comparisonHeader = []interface{}{"a", "b", "half", "last", "diff"}
	trajectoryHeader = []interface{}{"pitch_id", "t", "x", "y", "z", "vx", "vy", "vz"}
)

// WriteWorkbook writes log to w as an xlsx workbook. The Trajectories sheet is
// only present when the log carries trajectories.
func WriteWorkbook(w io.Writer, log engine.SessionLog) error {
	f, err := build(log)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: writing workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes log to the xlsx file at path.
func SaveWorkbook(path string, log engine.SessionLog) error {
	f, err := build(log)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: saving %s: %w", path, err)
	}
	return nil
}

func build(log engine.SessionLog) (*excelize.File, error) {
	f := excelize.NewFile()

	cals := make([][]interface{}, 0, len(log.Calibrations))
	var traj [][]interface{}
	for _, c := range log.Calibrations {
		var dv interface{}
		if c.VelocityDelta != nil {
			dv = *c.VelocityDelta
		}
		cals = append(cals, []interface{}{
			c.PitchID, c.Cd, c.Cl, c.Delta,
			c.X1, c.Y1, c.Z1, c.X2, c.Y2, c.Z2, c.X3, c.Y3, c.Z3,
			dv, c.WithinTolerance, c.Iterations, c.Evaluations,
		})
		for _, p := range c.Trajectory {
			traj = append(traj, []interface{}{c.PitchID, p.T, p.X, p.Y, p.Z, p.VX, p.VY, p.VZ})
		}
	}

	cmps := make([][]interface{}, 0, len(log.Comparisons))
	for _, c := range log.Comparisons {
		cmps = append(cmps, []interface{}{c.A, c.B, c.Half, c.Last, c.Diff})
	}

	if err := writeSheet(f, SheetCalibrations, calibrationHeader, cals); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, SheetComparisons, comparisonHeader, cmps); err != nil {
		f.Close()
		return nil, err
	}
	if len(traj) > 0 {
		if err := writeSheet(f, SheetTrajectories, trajectoryHeader, traj); err != nil {
			f.Close()
			return nil, err
		}
	}

	// NewFile starts with a default sheet that no longer serves a purpose.
	if idx, err := f.GetSheetIndex(SheetCalibrations); err == nil {
		f.SetActiveSheet(idx)
	}
	f.DeleteSheet("Sheet1")
	return f, nil
}

func writeSheet(f *excelize.File, name string, header []interface{}, rows [][]interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("export: sheet %s: %w", name, err)
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("export: sheet %s header: %w", name, err)
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &rows[i]); err != nil {
			return fmt.Errorf("export: sheet %s row %d: %w", name, i+2, err)
		}
	}
	return nil
}
