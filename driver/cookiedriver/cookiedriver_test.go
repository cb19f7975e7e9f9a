package cookiedriver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ggoodman/http-sessions-go/driver"
)

const payload = `{"username":{"d":"virk","t":"String"}}`

func TestSaveThenLoadAcrossRequests(t *testing.T) {
	codec := New(Config{})
	ctx := context.Background()

	// First request: no cookie, save a payload.
	w1 := httptest.NewRecorder()
	r1 := httptest.NewRequest(http.MethodGet, "/", nil)
	d1 := codec.For(w1, r1)

	if _, ok, err := d1.Load(ctx, "sess-1"); err != nil || ok {
		t.Fatalf("Load on first request = %v, %v; want absent", ok, err)
	}
	if err := d1.Save(ctx, "sess-1", payload); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cookies := w1.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != DefaultName {
		t.Fatalf("response cookies = %v", cookies)
	}

	// Second request: client echoes the cookie back.
	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])
	d2 := codec.For(w2, r2)

	got, ok, err := d2.Load(ctx, "sess-1")
	if err != nil || !ok {
		t.Fatalf("Load on second request = %v, %v", ok, err)
	}
	if got != payload {
		t.Fatalf("Load = %q, want %q", got, payload)
	}
}

func TestSaveEmptyClearsCookie(t *testing.T) {
	codec := New(Config{})
	ctx := context.Background()

	// The client carries a payload; saving empty must expire the cookie.
	w1 := httptest.NewRecorder()
	r1 := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := codec.For(w1, r1).Save(ctx, "s", payload); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	carried := w1.Result().Cookies()[0]

	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(carried)
	if err := codec.For(w2, r2).Save(ctx, "s", driver.EmptyPayload); err != nil {
		t.Fatalf("Save(empty) failed: %v", err)
	}

	cookies := w2.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected expiring cookie, got %v", cookies)
	}
}

func TestSaveEmptyWithoutCookieStaysSilent(t *testing.T) {
	codec := New(Config{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := codec.For(w, r).Save(context.Background(), "s", driver.EmptyPayload); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got := w.Result().Cookies(); len(got) != 0 {
		t.Fatalf("unexpected cookies: %v", got)
	}
}

func TestUndecodableCookieIsAbsent(t *testing.T) {
	codec := New(Config{})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: DefaultName, Value: "%%%not-base64%%%"})

	if _, ok, err := codec.For(w, r).Load(context.Background(), "s"); err != nil || ok {
		t.Fatalf("Load(bad cookie) = %v, %v; want absent without error", ok, err)
	}
}

func TestRemoveClearsCookie(t *testing.T) {
	codec := New(Config{})

	w1 := httptest.NewRecorder()
	r1 := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := codec.For(w1, r1).Save(context.Background(), "s", payload); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	carried := w1.Result().Cookies()[0]

	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(carried)
	if err := codec.For(w2, r2).Remove(context.Background(), "s"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	cookies := w2.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected expiring cookie, got %v", cookies)
	}
}
