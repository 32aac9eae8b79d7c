package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/threadview/internal/model"
)

func TestViewerMiddleware_SetsViewer(t *testing.T) {
	var captured *model.PersonID
	handler := NewViewerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = ViewerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/comments", nil)
	req.Header.Set(ViewerHeader, "42")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
	}
	if captured == nil || *captured != 42 {
		t.Errorf("viewer = %v, want 42", captured)
	}
}

func TestViewerMiddleware_AbsentHeaderIsAnonymous(t *testing.T) {
	called := false
	handler := NewViewerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if v := ViewerFromContext(r.Context()); v != nil {
			t.Errorf("viewer = %d, want nil", *v)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/comments", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("handler should have been called")
	}
}

func TestViewerMiddleware_InvalidHeaderReturns400(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-3", "99999999999"} {
		t.Run(raw, func(t *testing.T) {
			handler := NewViewerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/comments", nil)
			req.Header.Set(ViewerHeader, raw)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			resp := w.Result()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
			var body ErrorResponseBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if body.Code != model.ErrCodeInvalidViewer {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeInvalidViewer)
			}
		})
	}
}

func TestViewerFromContext_Empty(t *testing.T) {
	if v := ViewerFromContext(context.Background()); v != nil {
		t.Errorf("viewer = %d, want nil", *v)
	}
	ctx := ContextWithViewer(context.Background(), 7)
	if v := ViewerFromContext(ctx); v == nil || *v != 7 {
		t.Errorf("viewer = %v, want 7", v)
	}
}
