// Package client talks to a running waitlist server over its HTTP API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/erwaitlist/waitlist/internal/domain/waitlist"
)

// APIError is a non-2xx answer from the server. Message comes from either
// the echo error body or the login body; Fields is set on validation errors.
type APIError struct {
	StatusCode int                     `json:"-"`
	Status     string                  `json:"status,omitempty"`
	Message    string                  `json:"message"`
	Fields     []waitlist.FieldProblem `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Problem)
	}
	return fmt.Sprintf("server returned %d: %s (%s)", e.StatusCode, e.Message, strings.Join(parts, ", "))
}

type Options struct {
	Timeout time.Duration
	// Retries applies to reads only; writes are never repeated.
	Retries int
}

type Client struct {
	http *resty.Client
}

func New(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || r.Request == nil || r.Request.Method != http.MethodGet {
				return false
			}
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	return &Client{http: rc}
}

// Login checks admin credentials. A rejected login is an *APIError with
// StatusCode 401.
func (c *Client) Login(ctx context.Context, username, password string) (*waitlist.AuthResult, error) {
	var out waitlist.AuthResult
	err := c.do(ctx, http.MethodPost, "/login", waitlist.LoginRequest{Username: username, Password: password}, nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AdmitPatient(ctx context.Context, req waitlist.AdmissionRequest) (*waitlist.Patient, error) {
	var out waitlist.Patient
	if err := c.do(ctx, http.MethodPost, "/admin/patients", req, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListPatients(ctx context.Context) ([]*waitlist.Patient, error) {
	var out []*waitlist.Patient
	if err := c.do(ctx, http.MethodGet, "/admin/patients", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AssignCareTeam(ctx context.Context, patientID int64, doctorID, roomID string) (*waitlist.Patient, error) {
	body := waitlist.AssignmentRequest{
		PatientID: idNumber(patientID),
		DoctorID:  waitlist.ExternalID(doctorID),
		RoomID:    waitlist.ExternalID(roomID),
	}
	var out waitlist.Patient
	if err := c.do(ctx, http.MethodPut, "/admin/patients/assign", body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) WaitTime(ctx context.Context, patientID int64) (*waitlist.WaitTimeEstimate, error) {
	query := map[string]string{"patient_id": strconv.FormatInt(patientID, 10)}
	var out waitlist.WaitTimeEstimate
	if err := c.do(ctx, http.MethodGet, "/user/wait-time", nil, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MarkTreated removes the patient and returns the record as it was.
func (c *Client) MarkTreated(ctx context.Context, patientID int64) (*waitlist.Patient, error) {
	var out waitlist.Patient
	if err := c.do(ctx, http.MethodPost, "/admin/patients/treated", waitlist.TreatmentRequest{PatientID: idNumber(patientID)}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, query map[string]string, out any) error {
	var apiErr APIError
	req := c.http.R().
		SetContext(ctx).
		SetResult(out).
		SetError(&apiErr)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if query != nil {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.IsError() {
		apiErr.StatusCode = resp.StatusCode()
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(resp.String())
		}
		return &apiErr
	}
	return nil
}

func idNumber(id int64) waitlist.PatientRef {
	return waitlist.PatientRef(strconv.FormatInt(id, 10))
}
