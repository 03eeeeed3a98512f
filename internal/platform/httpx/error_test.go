package httpx

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/cedarhouse/menu-api/internal/platform/requestctx"
)

func TestWriteErrorEnvelope(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	ctx = requestctx.WithTrace(ctx, requestctx.TraceInfo{TraceID: "trace-7"})

	rr := httptest.NewRecorder()
	WriteError(ctx, rr, NewError("menu_page_not_found", "no such page", 404))

	if rr.Code != 404 {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "menu_page_not_found" || body["message"] != "no such page" {
		t.Fatalf("unexpected envelope %v", body)
	}
	if body["request_id"] != "req-42" || body["trace_id"] != "trace-7" {
		t.Fatalf("expected context identifiers, got %v", body)
	}
}

func TestWriteErrorDefaultsStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(context.Background(), rr, Error{Code: "internal_error", Message: "boom"})

	if rr.Code != 500 {
		t.Fatalf("expected status 500, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "request_id") {
		t.Fatalf("expected no request id without middleware, got %s", rr.Body.String())
	}
}

func TestNewErrorCleansInput(t *testing.T) {
	err := NewError("bad\ncode", "line one\r\nline two", 400)
	if strings.ContainsAny(err.Code+err.Message, "\r\n") {
		t.Fatalf("expected newlines stripped, got %+v", err)
	}
}
