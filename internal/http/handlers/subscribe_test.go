package handlers_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/newzify/newzify/internal/domain/subscriber"
	"github.com/newzify/newzify/internal/http/handlers"
	"github.com/newzify/newzify/internal/jobs"
)

// memSubscribers mirrors the postgres upsert contract: created is false when
// the email is already on the list.
type memSubscribers struct {
	mu      sync.Mutex
	byEmail map[string]subscriber.Subscriber
}

func newMemSubscribers() *memSubscribers {
	return &memSubscribers{byEmail: make(map[string]subscriber.Subscriber)}
}

func (m *memSubscribers) Upsert(_ context.Context, name, email string) (subscriber.Subscriber, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byEmail[email]; ok {
		return existing, false, nil
	}

	sub := subscriber.Subscriber{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	m.byEmail[email] = sub

	return sub, true, nil
}

func newSubscribeRouter(store handlers.SubscriberStore, enq handlers.JobEnqueuer, ready bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()

	h := handlers.NewSubscribeHandler(store, enq, gate(ready), testLogger())

	r.POST("/subscribe", h.Subscribe)

	return r
}

func TestSubscribe_Success(t *testing.T) {
	enq := &recordingEnqueuer{}
	r := newSubscribeRouter(newMemSubscribers(), enq, true)

	w := doJSON(t, r, http.MethodPost, "/subscribe", `{"name":"Reader","email":"reader@example.com"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}

	e := decodeEnvelope(t, w)

	if !e.Success || e.Message != "Subscription success!" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	created := enq.created()

	if len(created) != 1 || created[0].Type != jobs.TypeSubscriptionMail {
		t.Fatalf("expected one subscription mail job, got %+v", created)
	}
}

func TestSubscribe_IdempotentNoSecondMail(t *testing.T) {
	enq := &recordingEnqueuer{}
	r := newSubscribeRouter(newMemSubscribers(), enq, true)

	body := `{"name":"Reader","email":"reader@example.com"}`

	if w := doJSON(t, r, http.MethodPost, "/subscribe", body); w.Code != http.StatusOK {
		t.Fatalf("first subscribe: status = %d", w.Code)
	}

	w := doJSON(t, r, http.MethodPost, "/subscribe", body)

	if w.Code != http.StatusOK {
		t.Fatalf("second subscribe: status = %d, want 200", w.Code)
	}

	if e := decodeEnvelope(t, w); e.Message != "Subscription success!" {
		t.Fatalf("message = %q", e.Message)
	}

	if got := len(enq.created()); got != 1 {
		t.Fatalf("mail jobs = %d, want 1 (no mail on re-subscribe)", got)
	}
}

func TestSubscribe_InvalidEmail(t *testing.T) {
	r := newSubscribeRouter(newMemSubscribers(), nil, true)

	w := doJSON(t, r, http.MethodPost, "/subscribe", `{"name":"Reader","email":"not-an-email"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	if e := decodeEnvelope(t, w); e.Message != "Invalid email format" {
		t.Fatalf("message = %q", e.Message)
	}
}

func TestSubscribe_EnqueueFailure(t *testing.T) {
	r := newSubscribeRouter(newMemSubscribers(), failingEnqueuer{}, true)

	w := doJSON(t, r, http.MethodPost, "/subscribe", `{"name":"Reader","email":"reader@example.com"}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	if e := decodeEnvelope(t, w); e.Message != "Subscription failed." {
		t.Fatalf("message = %q", e.Message)
	}
}

func TestSubscribe_StoreUnavailable(t *testing.T) {
	r := newSubscribeRouter(newMemSubscribers(), nil, false)

	w := doJSON(t, r, http.MethodPost, "/subscribe", `{"name":"Reader","email":"reader@example.com"}`)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}
