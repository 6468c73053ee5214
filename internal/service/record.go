package service

// Record is a pitch together with its calibration. Calibration is nil until
// the record has been calibrated and is only ever replaced whole.
type Record struct {
	Pitch       Pitch
	Calibration *Calibration
}

// Calibrated reports whether the record carries a calibration.
func (r Record) Calibrated() bool { return r.Calibration != nil }

// CalibratedPitch returns the comparison view of the record, or false when it
// has not been calibrated.
func (r Record) CalibratedPitch() (CalibratedPitch, bool) {
	if r.Calibration == nil {
		return CalibratedPitch{}, false
	}
	return NewCalibratedPitch(r.Pitch, *r.Calibration), true
}

// Apply moves r to next, recalibrating when r has no calibration yet or a
// kinematic field changed. It reports whether a calibration ran. On error r is
// left exactly as it was.
func (s *Service) Apply(r *Record, next Pitch) (bool, error) {
	if r.Calibrated() && !KinematicsChanged(r.Pitch, next) {
		r.Pitch = next
		return false, nil
	}
	c, err := s.Calibrate(next)
	if err != nil {
		return false, err
	}
	r.Pitch = next
	r.Calibration = &c
	return true, nil
}
