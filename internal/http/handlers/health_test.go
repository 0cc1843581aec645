package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/newzify/newzify/internal/http/handlers"
)

func newHealthRouter(ready bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()

	h := handlers.NewHealthHandler(gate(ready))

	r.GET("/api/health", h.Health)
	r.GET("/readyz", h.Ready)

	return r
}

func TestHealth_UpEvenWhenStoreIsDown(t *testing.T) {
	r := newHealthRouter(false)

	w := doGet(t, r, "/api/health")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		OK     bool   `json:"ok"`
		Status string `json:"status"`
	}

	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}

	if !body.OK || body.Status != "up" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestReady_FollowsGate(t *testing.T) {
	if w := doGet(t, newHealthRouter(true), "/readyz"); w.Code != http.StatusOK {
		t.Fatalf("ready gate: status = %d, want 200", w.Code)
	}

	if w := doGet(t, newHealthRouter(false), "/readyz"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("closed gate: status = %d, want 503", w.Code)
	}
}
