package websession

import (
	"context"
	"errors"
	"testing"

	"github.com/ggoodman/http-sessions-go/driver/memdriver"
)

// fakeTransport implements IDTransport for lifecycle tests and records
// how often each side is invoked.
type fakeTransport struct {
	incoming   string
	hasID      bool
	outgoing   string
	reads      int
	writes     int
	writeError error
}

func (f *fakeTransport) ReadIncomingID() (string, bool) {
	f.reads++
	return f.incoming, f.hasID
}

func (f *fakeTransport) WriteOutgoingID(id string) error {
	f.writes++
	f.outgoing = id
	return f.writeError
}

type failingDriver struct {
	loadErr error
	saveErr error
}

func (d *failingDriver) Load(ctx context.Context, id string) (string, bool, error) {
	if d.loadErr != nil {
		return "", false, d.loadErr
	}
	return "", false, nil
}

func (d *failingDriver) Save(ctx context.Context, id, payload string) error { return d.saveErr }
func (d *failingDriver) Remove(ctx context.Context, id string) error        { return nil }

func newMemManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	drv, err := memdriver.New(memdriver.Config{MaxSessions: 64})
	if err != nil {
		t.Fatalf("memdriver.New failed: %v", err)
	}
	t.Cleanup(func() { _ = drv.Close() })
	return NewManager(drv, opts...)
}

func TestResolveWithoutIncomingID(t *testing.T) {
	m := newMemManager(t)
	tr := &fakeTransport{}

	sess, err := m.Resolve(context.Background(), tr)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if !sess.Fresh() {
		t.Fatal("session with no incoming id should be fresh")
	}
	if sess.ID() == "" {
		t.Fatal("no id generated")
	}
	if tr.outgoing != sess.ID() {
		t.Fatalf("outgoing id %q != session id %q", tr.outgoing, sess.ID())
	}
	if tr.reads != 1 || tr.writes != 1 {
		t.Fatalf("transport invoked reads=%d writes=%d, want 1 and 1", tr.reads, tr.writes)
	}
}

func TestResolveReusesIncomingID(t *testing.T) {
	m := newMemManager(t)
	tr := &fakeTransport{incoming: "20", hasID: true}

	sess, err := m.Resolve(context.Background(), tr)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if sess.Fresh() {
		t.Fatal("session with incoming id should not be fresh")
	}
	if sess.ID() != "20" {
		t.Fatalf("session id = %q, want 20", sess.ID())
	}
	if tr.outgoing != "20" {
		t.Fatalf("outgoing id = %q, want echo of incoming", tr.outgoing)
	}
}

func TestResolveRejectsGarbageIncomingID(t *testing.T) {
	m := newMemManager(t)

	for _, id := range []string{"", "has space", "semi;colon", "ctrl\x01", string(make([]byte, maxIDLen+1))} {
		tr := &fakeTransport{incoming: id, hasID: true}
		sess, err := m.Resolve(context.Background(), tr)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", id, err)
		}
		if !sess.Fresh() || sess.ID() == id {
			t.Errorf("garbage id %q was accepted", id)
		}
	}
}

func TestCommitThenResolveRoundTrip(t *testing.T) {
	m := newMemManager(t)
	ctx := context.Background()

	sess, err := m.Resolve(ctx, &fakeTransport{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := sess.Put("user.name", "virk"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := m.Commit(ctx, sess); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// Next request presents the same id.
	again, err := m.Resolve(ctx, &fakeTransport{incoming: sess.ID(), hasID: true})
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if again.Fresh() {
		t.Fatal("resumed session reported fresh")
	}
	if got := again.Get("user.name"); got != "virk" {
		t.Fatalf("Get(user.name) = %v, want virk", got)
	}
}

func TestResolveUnknownIDYieldsEmptyStore(t *testing.T) {
	m := newMemManager(t)

	sess, err := m.Resolve(context.Background(), &fakeTransport{incoming: "gone", hasID: true})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if sess.Fresh() {
		t.Fatal("session should reuse the presented id")
	}
	if len(sess.All()) != 0 {
		t.Fatalf("store not empty: %#v", sess.All())
	}
}

func TestResolveDriverFailure(t *testing.T) {
	m := NewManager(&failingDriver{loadErr: errors.New("backend down")})

	_, err := m.Resolve(context.Background(), &fakeTransport{incoming: "20", hasID: true})
	var ie *InitError
	if !errors.As(err, &ie) {
		t.Fatalf("error = %v, want InitError", err)
	}
	if ie.SessionID != "20" {
		t.Fatalf("InitError.SessionID = %q", ie.SessionID)
	}
}

func TestCommitDriverFailure(t *testing.T) {
	m := NewManager(&failingDriver{saveErr: errors.New("disk full")})

	sess, err := m.Resolve(context.Background(), &fakeTransport{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	err = m.Commit(context.Background(), sess)
	var pe *PersistError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want PersistError", err)
	}
}

func TestResolveCorruptPayloadIsHardFailure(t *testing.T) {
	drv, err := memdriver.New(memdriver.Config{MaxSessions: 8})
	if err != nil {
		t.Fatalf("memdriver.New failed: %v", err)
	}
	defer drv.Close()

	ctx := context.Background()
	if err := drv.Save(ctx, "broken", `{"not json`); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	m := NewManager(drv)
	if _, err := m.Resolve(ctx, &fakeTransport{incoming: "broken", hasID: true}); err == nil {
		t.Fatal("Resolve of corrupt payload succeeded, want error")
	}
}

func TestDestroy(t *testing.T) {
	m := newMemManager(t)
	ctx := context.Background()

	sess, err := m.Resolve(ctx, &fakeTransport{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := sess.Put("k", "v"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := m.Commit(ctx, sess); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if err := m.Destroy(ctx, sess); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if len(sess.All()) != 0 {
		t.Fatal("store not cleared by Destroy")
	}

	again, err := m.Resolve(ctx, &fakeTransport{incoming: sess.ID(), hasID: true})
	if err != nil {
		t.Fatalf("Resolve after Destroy failed: %v", err)
	}
	if len(again.All()) != 0 {
		t.Fatal("payload survived Destroy")
	}
}

func TestCustomIDGenerator(t *testing.T) {
	m := newMemManager(t, WithIDGenerator(func() string { return "fixed-id" }))

	sess, err := m.Resolve(context.Background(), &fakeTransport{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if sess.ID() != "fixed-id" {
		t.Fatalf("session id = %q", sess.ID())
	}
}
