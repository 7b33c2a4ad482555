package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"key": "value"})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %s", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["key"] != "value" {
		t.Errorf("body = %v", body)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "bad input")

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != "bad input" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestRequireMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", nil)

	if RequireMethod(rec, req, http.MethodGet) {
		t.Error("POST should not satisfy GET requirement")
	}
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodGet {
		t.Errorf("Allow = %q", allow)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	if !RequireMethod(rec, req, http.MethodGet, http.MethodHead) {
		t.Error("GET should satisfy GET|HEAD requirement")
	}
}

func TestDecodeJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"search": "apple"}`))

	var v struct {
		Search string `json:"search"`
	}
	if !DecodeJSON(rec, req, &v) {
		t.Fatal("valid JSON rejected")
	}
	if v.Search != "apple" {
		t.Errorf("search = %q", v.Search)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{broken`))
	if DecodeJSON(rec, req, &v) {
		t.Error("malformed JSON accepted")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPathParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/market/quote/AAPL", nil)
	if got := PathParam(req, "/api/market/quote/", ""); got != "AAPL" {
		t.Errorf("PathParam = %q, want AAPL", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/market/quote/AAPL/extra", nil)
	if got := PathParam(req, "/api/market/quote/", ""); got != "AAPL" {
		t.Errorf("PathParam with trailing segment = %q, want AAPL", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/other/path", nil)
	if got := PathParam(req, "/api/market/quote/", ""); got != "" {
		t.Errorf("PathParam on mismatched prefix = %q, want empty", got)
	}
}
