package waitlist

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type Service struct {
	patients PatientRepository
	auth     *Authenticator
}

func NewService(patients PatientRepository, auth *Authenticator) *Service {
	return &Service{patients: patients, auth: auth}
}

// -- Admission --

func (s *Service) AdmitPatient(ctx context.Context, req AdmissionRequest) (*Patient, error) {
	verr := &ValidationError{}
	name := required(verr, "name", req.Name)
	gender := required(verr, "gender", req.Gender)

	var dob Date
	if strings.TrimSpace(req.DateOfBirth) == "" {
		verr.add("date_of_birth", "is required")
	} else if d, err := ParseDate(req.DateOfBirth); err != nil {
		verr.add("date_of_birth", "must be a date (YYYY-MM-DD)")
	} else {
		dob = d
	}

	contact := required(verr, "contact", req.Contact)

	priority, ok := integerValue(req.PriorityLevel)
	switch {
	case req.PriorityLevel == nil:
		verr.add("priority_level", "is required")
	case !ok:
		verr.add("priority_level", "must be an integer")
	case priority < math.MinInt32 || priority > math.MaxInt32:
		verr.add("priority_level", "is out of range")
	}

	issue := required(verr, "medical_issue", req.MedicalIssue)

	if err := verr.orNil(); err != nil {
		return nil, err
	}

	p := &Patient{
		Name:          name,
		Gender:        gender,
		DateOfBirth:   dob,
		Contact:       contact,
		PriorityLevel: int(priority),
		MedicalIssue:  issue,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.patients.List(ctx)
}

// -- Care team --

func (s *Service) AssignCareTeam(ctx context.Context, req AssignmentRequest) (*Patient, error) {
	verr := &ValidationError{}
	id := patientID(verr, string(req.PatientID))
	doctorID := required(verr, "doctor_id", string(req.DoctorID))
	roomID := required(verr, "room_id", string(req.RoomID))
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return s.patients.AssignCareTeam(ctx, id, doctorID, roomID)
}

// -- Queue --

// EstimateWaitTime looks up a patient by the identifier as the caller sent it.
func (s *Service) EstimateWaitTime(ctx context.Context, rawPatientID string) (*WaitTimeEstimate, error) {
	verr := &ValidationError{}
	id := patientID(verr, rawPatientID)
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &WaitTimeEstimate{
		Minutes:       EstimateWaitMinutes(p.PriorityLevel),
		PriorityLevel: p.PriorityLevel,
	}, nil
}

func (s *Service) MarkTreated(ctx context.Context, rawPatientID string) (*Patient, error) {
	verr := &ValidationError{}
	id := patientID(verr, rawPatientID)
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return s.patients.MarkTreated(ctx, id)
}

// -- Admin --

func (s *Service) AuthenticateAdmin(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	verr := &ValidationError{}
	username := required(verr, "username", req.Username)
	// Passwords compare exactly; only an empty one is missing.
	if req.Password == "" {
		verr.add("password", "is required")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return s.auth.Authenticate(ctx, username, req.Password)
}

// -- helpers --

func required(verr *ValidationError, field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		verr.add(field, "is required")
	}
	return value
}

// patientID parses a caller-supplied patient identifier. Identifiers are
// positive integers assigned by the store.
func patientID(verr *ValidationError, raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		verr.add("patient_id", "is required")
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		verr.add("patient_id", "must be a positive integer")
		return 0
	}
	return id
}

// integerValue accepts the shapes a priority level arrives in: a decoded JSON
// number (float64 or json.Number) or a Go integer from an in-process caller.
// Strings, booleans and fractional numbers are rejected.
func integerValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) || math.Abs(n) > 1<<53 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := strconv.ParseInt(n.String(), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
