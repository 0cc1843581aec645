package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newzify/newzify/internal/auth"
	"github.com/newzify/newzify/internal/domain/job"
	"github.com/newzify/newzify/internal/http/handlers"
	"github.com/newzify/newzify/internal/jobs"
	"github.com/newzify/newzify/internal/repo/memory"
)

type gate bool

func (g gate) Ready() bool { return bool(g) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingEnqueuer collects created jobs; failingEnqueuer always errors.
type recordingEnqueuer struct {
	mu   sync.Mutex
	reqs []job.CreateRequest
}

func (r *recordingEnqueuer) Create(_ context.Context, req job.CreateRequest) (job.Job, error) {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	r.mu.Unlock()

	return job.New(req), nil
}

func (r *recordingEnqueuer) created() []job.CreateRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]job.CreateRequest(nil), r.reqs...)
}

type failingEnqueuer struct{}

func (failingEnqueuer) Create(context.Context, job.CreateRequest) (job.Job, error) {
	return job.Job{}, errors.New("outbox down")
}

func newAuthRouter(store *memory.UsersRepo, enq handlers.JobEnqueuer, ready bool) (*gin.Engine, *auth.Manager) {
	gin.SetMode(gin.TestMode)

	r := gin.New()

	jwtManager := auth.NewManager("test-secret", time.Hour)

	h := handlers.NewAuthHandler(store, store, jwtManager, enq, gate(ready), nil, testLogger())

	r.POST("/api/register", h.Register)
	r.POST("/api/login", h.Login)

	return r, jwtManager
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

type envelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Token   string `json:"token"`
	User    struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var e envelope

	if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil {
		t.Fatalf("response is not JSON: %v (%s)", err, w.Body.String())
	}

	return e
}

func TestRegister_Success(t *testing.T) {
	store := memory.NewUsersRepo()
	enq := &recordingEnqueuer{}
	r, _ := newAuthRouter(store, enq, true)

	w := doJSON(t, r, http.MethodPost, "/api/register", `{"name":"Li","email":"li@example.com","password":"secret1"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", w.Code, w.Body.String())
	}

	e := decodeEnvelope(t, w)

	if !e.Success || e.Message != "User registered successfully" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	// the credential record exists and never stores the plaintext
	u, err := store.GetByEmail(context.Background(), "li@example.com")

	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}

	if u.PasswordHash == "" || u.PasswordHash == "secret1" {
		t.Fatalf("password stored badly: %q", u.PasswordHash)
	}

	// welcome mail was queued
	created := enq.created()

	if len(created) != 1 || created[0].Type != jobs.TypeWelcomeMail {
		t.Fatalf("expected one welcome mail job, got %+v", created)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := memory.NewUsersRepo()
	r, _ := newAuthRouter(store, &recordingEnqueuer{}, true)

	body := `{"name":"Li","email":"li@example.com","password":"secret1"}`

	if w := doJSON(t, r, http.MethodPost, "/api/register", body); w.Code != http.StatusCreated {
		t.Fatalf("first register: status = %d", w.Code)
	}

	w := doJSON(t, r, http.MethodPost, "/api/register", body)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("second register: status = %d, want 400", w.Code)
	}

	e := decodeEnvelope(t, w)

	if e.Success || e.Message != "User already exists" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRegister_MissingFields(t *testing.T) {
	r, _ := newAuthRouter(memory.NewUsersRepo(), nil, true)

	w := doJSON(t, r, http.MethodPost, "/api/register", `{"email":"li@example.com"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	e := decodeEnvelope(t, w)

	if e.Message != "All fields are required" {
		t.Fatalf("message = %q", e.Message)
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	cases := []string{"plain", "no@tld", "white space@example.com", "@example.com", "li@.com "}

	for _, email := range cases {
		store := memory.NewUsersRepo()
		r, _ := newAuthRouter(store, nil, true)

		w := doJSON(t, r, http.MethodPost, "/api/register", `{"name":"Li","email":"`+email+`","password":"secret1"}`)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("email %q: status = %d, want 400", email, w.Code)
		}

		e := decodeEnvelope(t, w)

		if e.Message != "Invalid email format" {
			t.Fatalf("email %q: message = %q", email, e.Message)
		}

		// nothing reached the store
		if exists, _ := store.EmailExists(context.Background(), email); exists {
			t.Fatalf("email %q: store was written", email)
		}
	}
}

func TestRegister_StoreUnavailable(t *testing.T) {
	store := memory.NewUsersRepo()
	r, _ := newAuthRouter(store, nil, false)

	w := doJSON(t, r, http.MethodPost, "/api/register", `{"name":"Li","email":"li@example.com","password":"secret1"}`)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}

	e := decodeEnvelope(t, w)

	if e.Message != "Database unavailable. Please try again shortly." {
		t.Fatalf("message = %q", e.Message)
	}

	if exists, _ := store.EmailExists(context.Background(), "li@example.com"); exists {
		t.Fatalf("store was written while unavailable")
	}
}

func TestRegister_EnqueueFailureStillSucceeds(t *testing.T) {
	r, _ := newAuthRouter(memory.NewUsersRepo(), failingEnqueuer{}, true)

	w := doJSON(t, r, http.MethodPost, "/api/register", `{"name":"Li","email":"li@example.com","password":"secret1"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 even when the mail outbox is down (%s)", w.Code, w.Body.String())
	}
}

func TestLogin_Success(t *testing.T) {
	store := memory.NewUsersRepo()
	r, jwtManager := newAuthRouter(store, &recordingEnqueuer{}, true)

	doJSON(t, r, http.MethodPost, "/api/register", `{"name":"Li","email":"li@example.com","password":"secret1"}`)

	w := doJSON(t, r, http.MethodPost, "/api/login", `{"email":"li@example.com","password":"secret1"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}

	e := decodeEnvelope(t, w)

	if !e.Success || e.Message != "Login successful" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	if e.Token == "" {
		t.Fatalf("expected a session token")
	}

	if e.User.Email != "li@example.com" || e.User.ID == "" {
		t.Fatalf("unexpected user payload: %+v", e.User)
	}

	// the token subject is the stored user id
	claims, err := jwtManager.Verify(e.Token)

	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}

	if claims.UserID != e.User.ID {
		t.Fatalf("token subject %q != user id %q", claims.UserID, e.User.ID)
	}

	if claims.Email != "li@example.com" {
		t.Fatalf("token email = %q", claims.Email)
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	store := memory.NewUsersRepo()
	r, _ := newAuthRouter(store, nil, true)

	doJSON(t, r, http.MethodPost, "/api/register", `{"name":"Li","email":"li@example.com","password":"secret1"}`)

	wrongPassword := doJSON(t, r, http.MethodPost, "/api/login", `{"email":"li@example.com","password":"nope"}`)
	unknownEmail := doJSON(t, r, http.MethodPost, "/api/login", `{"email":"ghost@example.com","password":"secret1"}`)

	if wrongPassword.Code != http.StatusBadRequest || unknownEmail.Code != http.StatusBadRequest {
		t.Fatalf("statuses = %d / %d, want both 400", wrongPassword.Code, unknownEmail.Code)
	}

	a := decodeEnvelope(t, wrongPassword)
	b := decodeEnvelope(t, unknownEmail)

	if a.Message != "Invalid email or password" || a.Message != b.Message || a.Code != b.Code {
		t.Fatalf("responses differ: %q/%q vs %q/%q", a.Code, a.Message, b.Code, b.Message)
	}

	if a.Token != "" || b.Token != "" {
		t.Fatalf("failed logins must not carry a token")
	}
}

func TestLogin_MissingFields(t *testing.T) {
	r, _ := newAuthRouter(memory.NewUsersRepo(), nil, true)

	w := doJSON(t, r, http.MethodPost, "/api/login", `{"email":"li@example.com"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	if e := decodeEnvelope(t, w); e.Message != "Email and password are required" {
		t.Fatalf("message = %q", e.Message)
	}
}

func TestLogin_StoreUnavailable(t *testing.T) {
	r, _ := newAuthRouter(memory.NewUsersRepo(), nil, false)

	w := doJSON(t, r, http.MethodPost, "/api/login", `{"email":"li@example.com","password":"secret1"}`)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}
