package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

type bindTarget struct {
	Name  string `json:"name" binding:"required"`
	Count int    `json:"count"`
}

func bindRouter(message string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()

	r.POST("/", func(ctx *gin.Context) {
		var req bindTarget

		if !BindJSONWithMessage(ctx, &req, message) {
			return
		}

		ctx.JSON(http.StatusOK, gin.H{"success": true})
	})

	return r
}

func postBody(t *testing.T, r http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

type bindErrBody struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details struct {
		JSON   string `json:"json"`
		Fields []FieldError
	} `json:"details"`
}

func decodeBindBody(t *testing.T, w *httptest.ResponseRecorder) bindErrBody {
	t.Helper()

	var b bindErrBody

	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatalf("bad body: %v (%s)", err, w.Body.String())
	}

	return b
}

func TestBindJSON_MissingRequiredField(t *testing.T) {
	w := postBody(t, bindRouter("all fields please"), `{"count":3}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	b := decodeBindBody(t, w)

	if b.Success || b.Code != "invalid_request" || b.Message != "all fields please" {
		t.Fatalf("unexpected envelope: %s", w.Body.String())
	}

	if len(b.Details.Fields) != 1 {
		t.Fatalf("fields = %+v, want one entry", b.Details.Fields)
	}

	fe := b.Details.Fields[0]

	// field name comes from the json tag, not the Go struct field
	if fe.Field != "name" || fe.Rule != "required" {
		t.Fatalf("unexpected field error: %+v", fe)
	}
}

func TestBindJSON_SyntaxError(t *testing.T) {
	w := postBody(t, bindRouter("bad"), `{"name":`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	if b := decodeBindBody(t, w); b.Details.JSON != "invalid_json_syntax" {
		t.Fatalf("unexpected details: %s", w.Body.String())
	}
}

func TestBindJSON_TypeMismatch(t *testing.T) {
	w := postBody(t, bindRouter("bad"), `{"name":"x","count":"three"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	b := decodeBindBody(t, w)

	if b.Details.JSON != "invalid_json_type" {
		t.Fatalf("unexpected details: %s", w.Body.String())
	}
}

func TestBindJSON_ValidBody(t *testing.T) {
	w := postBody(t, bindRouter("bad"), `{"name":"x","count":3}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", w.Code, w.Body.String())
	}
}

func TestEmailRegex(t *testing.T) {
	valid := []string{"li@example.com", "a.b+c@sub.domain.org", "x@y.z"}

	for _, email := range valid {
		if !emailRegex.MatchString(email) {
			t.Fatalf("%q should be valid", email)
		}
	}

	invalid := []string{"", "plain", "no@tld", "two@@example.com", "sp ace@example.com", "trailing@example.com "}

	for _, email := range invalid {
		if emailRegex.MatchString(email) {
			t.Fatalf("%q should be invalid", email)
		}
	}
}
