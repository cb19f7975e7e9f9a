package websession

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ggoodman/http-sessions-go/driver"
	"github.com/ggoodman/http-sessions-go/driver/cookiedriver"
	"github.com/ggoodman/http-sessions-go/driver/memdriver"
)

func TestHandleNewAndResumedSession(t *testing.T) {
	m := newMemManager(t, WithCookie(CookieConfig{Name: "sid"}))

	h := m.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := FromContext(r.Context())
		if sess == nil {
			t.Fatal("no session in context")
		}
		if sess.Fresh() {
			if err := sess.Put("visits", 1); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		} else if err := sess.Increment("visits", 1); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		fmt.Fprintf(w, "%v", sess.Get("visits"))
	}))

	// First request: no cookie.
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/", nil))
	if w1.Body.String() != "1" {
		t.Fatalf("first response = %q, want 1", w1.Body.String())
	}
	cookies := w1.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sid" || cookies[0].Value == "" {
		t.Fatalf("first response cookies = %v", cookies)
	}

	// Second request: echo the cookie back.
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)
	if w2.Body.String() != "2" {
		t.Fatalf("second response = %q, want 2", w2.Body.String())
	}
	second := w2.Result().Cookies()
	if len(second) != 1 || second[0].Value != cookies[0].Value {
		t.Fatalf("resumed request did not echo the id cookie: %v", second)
	}
}

func TestHandleAlwaysSetsCookieEvenWhenStoreEmpty(t *testing.T) {
	m := newMemManager(t)

	h := m.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if len(w.Result().Cookies()) != 1 {
		t.Fatalf("cookies = %v, want the id cookie", w.Result().Cookies())
	}
}

func TestHandleCorruptPayloadFailsRequest(t *testing.T) {
	drv, err := memdriver.New(memdriver.Config{MaxSessions: 8})
	if err != nil {
		t.Fatalf("memdriver.New failed: %v", err)
	}
	t.Cleanup(func() { _ = drv.Close() })
	if err := drv.Save(context.Background(), "broken", "not json"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	m := NewManager(drv, WithCookie(CookieConfig{Name: "sid"}))
	h := m.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler ran despite unusable session")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "sid", Value: "broken"})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestHandleWithRequestScopedCookieDriver(t *testing.T) {
	codec := cookiedriver.New(cookiedriver.Config{})
	m := NewManager(nil,
		WithCookie(CookieConfig{Name: "sid"}),
		WithRequestDriver(func(w http.ResponseWriter, r *http.Request) driver.Driver {
			return codec.For(w, r)
		}),
	)

	h := m.Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := FromContext(r.Context())
		if sess.Fresh() {
			if err := sess.Put("count", 1); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		} else if err := sess.Increment("count", 1); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		fmt.Fprintf(w, "%v", sess.Get("count"))
	}))

	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/", nil))
	if w1.Body.String() != "1" {
		t.Fatalf("first response = %q", w1.Body.String())
	}

	// Both the id cookie and the payload cookie travel back.
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range w1.Result().Cookies() {
		r2.AddCookie(ck)
	}
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)
	if w2.Body.String() != "2" {
		t.Fatalf("second response = %q, want 2", w2.Body.String())
	}
}
