package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/erwaitlist/waitlist/internal/config"
	"github.com/erwaitlist/waitlist/internal/domain/waitlist"
	"github.com/erwaitlist/waitlist/internal/platform/db"
	"github.com/erwaitlist/waitlist/internal/platform/middleware"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func testConfig() *config.Config {
	return &config.Config{
		Env:            "development",
		CORSOrigins:    []string{"*"},
		RateLimitRPS:   1,
		RateLimitBurst: 1,
		RequestTimeout: 5 * time.Second,
		BodyLimit:      "1K",
	}
}

func testRouter(p db.Pinger) *echo.Echo {
	svc := waitlist.NewService(nil, nil)
	return newRouter(testConfig(), zerolog.Nop(), routerDeps{service: svc, pinger: p})
}

func TestRouter_StatusProbe(t *testing.T) {
	e := testRouter(fakePinger{})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != db.StatusConnected {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("expected request id header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected security headers")
	}
}

func TestRouter_StatusProbe_DatabaseDown(t *testing.T) {
	e := testRouter(fakePinger{err: errors.New("refused")})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if rec.Body.String() != db.StatusDisconnected {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestRouter_ProbesSkipRateLimit(t *testing.T) {
	e := testRouter(fakePinger{})
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("probe %d: expected 200, got %d", i, rec.Code)
		}
	}
}

func TestRouter_APIIsRateLimited(t *testing.T) {
	e := testRouter(fakePinger{})
	codes := map[int]int{}
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user/wait-time", nil))
		codes[rec.Code]++
	}
	if codes[http.StatusTooManyRequests] == 0 {
		t.Errorf("expected throttling, got %v", codes)
	}
	if codes[http.StatusBadRequest] != 1 {
		t.Errorf("expected first request to reach the handler, got %v", codes)
	}
}

func TestRouter_BodyLimit(t *testing.T) {
	e := testRouter(fakePinger{})
	body := `{"name":"` + strings.Repeat("x", 4096) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
}

func TestRouter_RoutesRegistered(t *testing.T) {
	e := testRouter(fakePinger{})
	want := []string{
		"GET /api",
		"POST /login",
		"GET /admin/patients",
		"POST /admin/patients",
		"PUT /admin/patients/assign",
		"POST /admin/patients/treated",
		"GET /user/wait-time",
	}
	got := map[string]bool{}
	for _, r := range e.Routes() {
		got[r.Method+" "+r.Path] = true
	}
	for _, w := range want {
		if !got[w] {
			t.Errorf("missing route %s", w)
		}
	}
	if got["GET /health"] {
		t.Error("/health should only be registered with a pool")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	prod := newLogger(&buf, "production")
	prod.Info().Msg("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output, got %q", buf.String())
	}

	buf.Reset()
	dev := newLogger(&buf, "development")
	dev.Info().Msg("hello")
	if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "hello") {
		t.Errorf("expected console output, got %q", buf.String())
	}
}

func TestLoadServerConfig_LoggerFollowsConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/waitlist")
	t.Setenv("ENV", "")
	os.Unsetenv("ENV")

	var buf bytes.Buffer
	cfg, logger, err := loadServerConfig(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.IsDev() {
		t.Fatalf("expected development default, got %q", cfg.Env)
	}
	logger.Info().Msg("hello")
	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected console output for the development default, got %q", buf.String())
	}

	t.Setenv("ENV", "production")
	t.Setenv("CORS_ORIGINS", "https://er.example")
	buf.Reset()
	_, logger, err = loadServerConfig(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Info().Msg("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("expected JSON output in production, got %q", buf.String())
	}
}

func TestRouter_UnknownPathSkipsAPIMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 100
	cfg.RateLimitBurst = 100
	calls := 0
	conn := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			calls++
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
	}
	e := newRouter(cfg, zerolog.Nop(), routerDeps{
		service: waitlist.NewService(nil, nil),
		pinger:  fakePinger{},
		conn:    conn,
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/favicon.ico", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown path, got %d", rec.Code)
	}
	if calls != 0 {
		t.Errorf("unknown path ran the API middleware %d times", calls)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/user/wait-time?patient_id=1", nil))
	if rec.Code != http.StatusServiceUnavailable || calls != 1 {
		t.Errorf("expected API route to run the middleware once, got %d after %d calls", rec.Code, calls)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api", nil))
	if rec.Code != http.StatusOK || calls != 1 {
		t.Errorf("status probe should not hold a connection, got %d after %d calls", rec.Code, calls)
	}
}

func TestParsePatientID(t *testing.T) {
	if id, err := parsePatientID("42"); err != nil || id != 42 {
		t.Errorf("expected 42, got %d (%v)", id, err)
	}
	for _, s := range []string{"", "0", "-1", "abc", "1.5"} {
		if _, err := parsePatientID(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestPrintPatients(t *testing.T) {
	doctor, room := "dr-1", "4"
	var buf bytes.Buffer
	printPatients(&buf, []*waitlist.Patient{
		{ID: 1, Name: "Ada", PriorityLevel: 5, MedicalIssue: "fracture"},
		{ID: 2, Name: "Alan", PriorityLevel: 1, MedicalIssue: "burn", DoctorID: &doctor, RoomID: &room},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", buf.String())
	}
	if !strings.Contains(lines[1], "35") || !strings.Contains(lines[1], " - ") {
		t.Errorf("unexpected first row %q", lines[1])
	}
	if !strings.Contains(lines[2], "55") || !strings.HasSuffix(lines[2], "4") {
		t.Errorf("unexpected second row %q", lines[2])
	}
}

func TestPatientCommands_AgainstServer(t *testing.T) {
	var lastPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastPath = r.Method + " " + r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user/wait-time":
			w.Write([]byte(`{"minutes":45,"priority_level":3}`))
		default:
			w.Write([]byte(`{"id":7,"name":"Ada","doctor_id":"d","room_id":"r"}`))
		}
	}))
	defer srv.Close()

	tests := []struct {
		args     []string
		wantPath string
		wantOut  string
	}{
		{[]string{"patient", "wait-time", "7"}, "GET /user/wait-time", "Estimated wait: 45 minutes"},
		{[]string{"patient", "treat", "7"}, "POST /admin/patients/treated", "Patient 7 (Ada) marked treated."},
		{[]string{"patient", "assign", "7", "--doctor", "d", "--room", "r"}, "PUT /admin/patients/assign", "doctor d in room r"},
		{[]string{"patient", "admit", "--name", "Ada", "--priority", "3"}, "POST /admin/patients", "Admitted patient 7."},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		root := rootCmd()
		root.SetOut(&out)
		root.SetArgs(append(tt.args, "--server", srv.URL))
		if err := root.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("%v: unexpected error: %v", tt.args, err)
		}
		if lastPath != tt.wantPath {
			t.Errorf("%v: expected %s, got %s", tt.args, tt.wantPath, lastPath)
		}
		if !strings.Contains(out.String(), tt.wantOut) {
			t.Errorf("%v: unexpected output %q", tt.args, out.String())
		}
	}
}
