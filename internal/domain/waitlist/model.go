package waitlist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Patient maps to the patients table.
type Patient struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Gender        string    `db:"gender" json:"gender"`
	DateOfBirth   Date      `db:"date_of_birth" json:"date_of_birth"`
	Contact       string    `db:"contact" json:"contact"`
	PriorityLevel int       `db:"priority_level" json:"priority_level"`
	MedicalIssue  string    `db:"medical_issue" json:"medical_issue"`
	DoctorID      *string   `db:"doctor_id" json:"doctor_id"`
	RoomID        *string   `db:"room_id" json:"room_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Assigned reports whether a doctor and room have been bound to the patient.
func (p *Patient) Assigned() bool {
	return p.DoctorID != nil && p.RoomID != nil
}

// AdminCredential maps to the admins table.
type AdminCredential struct {
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"-"`
}

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD, or a full RFC 3339 timestamp whose date part
// is kept.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: expected %s", s, DateLayout)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ExternalID identifies something this service does not own, such as a
// doctor or a room. Callers may send it as a JSON string or number.
type ExternalID string

func (id *ExternalID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ExternalID(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return &json.UnmarshalTypeError{Value: string(b), Type: reflect.TypeOf(*id)}
		}
		*id = ExternalID(n.String())
	}
	return nil
}

// PatientRef is a patient identifier as a client sends it: a JSON number or
// a numeric string. The service parses it so that a malformed value is
// reported against patient_id.
type PatientRef string

func (r PatientRef) String() string {
	return string(r)
}

func (r PatientRef) Int64() (int64, error) {
	return strconv.ParseInt(string(r), 10, 64)
}

// MarshalJSON writes integer identifiers as JSON numbers.
func (r PatientRef) MarshalJSON() ([]byte, error) {
	if n, err := r.Int64(); err == nil {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(string(r))
}

func (r *PatientRef) UnmarshalJSON(b []byte) error {
	var id ExternalID
	if err := id.UnmarshalJSON(b); err != nil {
		return &json.UnmarshalTypeError{Value: string(b), Type: reflect.TypeOf(*r)}
	}
	*r = PatientRef(id)
	return nil
}

// AdmissionRequest carries the intake form. PriorityLevel is left untyped so
// that a non-integer value surfaces as a validation problem on that field
// rather than as an undecodable body.
type AdmissionRequest struct {
	Name          string `json:"name"`
	Gender        string `json:"gender"`
	DateOfBirth   string `json:"date_of_birth"`
	Contact       string `json:"contact"`
	PriorityLevel any    `json:"priority_level"`
	MedicalIssue  string `json:"medical_issue"`
}

// AssignmentRequest binds a doctor and a room to a waiting patient.
type AssignmentRequest struct {
	PatientID PatientRef `json:"patient_id,omitempty"`
	DoctorID  ExternalID  `json:"doctor_id"`
	RoomID    ExternalID  `json:"room_id"`
}

// TreatmentRequest removes a patient from the waitlist.
type TreatmentRequest struct {
	PatientID PatientRef `json:"patient_id,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResult is returned on a successful admin login.
type AuthResult struct {
	Role string `json:"role"`
}

// WaitTimeEstimate is what a patient sees when checking the queue.
type WaitTimeEstimate struct {
	Minutes       int `json:"minutes"`
	PriorityLevel int `json:"priority_level"`
}
