// Package drivertest provides a conformance test suite that every
// driver.Driver implementation in this module runs against itself.
package drivertest

import (
	"context"
	"testing"
	"time"

	"github.com/ggoodman/http-sessions-go/driver"
)

// Factory creates a fresh, empty Driver instance for testing.
type Factory func(t *testing.T) driver.Driver

// Run exercises the Driver contract against the provided factory.
func Run(t *testing.T, factory Factory) {
	t.Run("LoadAbsentSession", func(t *testing.T) { testLoadAbsent(t, factory) })
	t.Run("SaveThenLoad", func(t *testing.T) { testSaveThenLoad(t, factory) })
	t.Run("SaveOverwrites", func(t *testing.T) { testSaveOverwrites(t, factory) })
	t.Run("SessionIsolation", func(t *testing.T) { testSessionIsolation(t, factory) })
	t.Run("Remove", func(t *testing.T) { testRemove(t, factory) })
	t.Run("RemoveAbsentIsNoop", func(t *testing.T) { testRemoveAbsent(t, factory) })
	t.Run("EmptyPayload", func(t *testing.T) { testEmptyPayload(t, factory) })
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func testLoadAbsent(t *testing.T, factory Factory) {
	d := factory(t)
	ctx := testCtx(t)

	payload, ok, err := d.Load(ctx, "missing")
	if err != nil {
		t.Fatalf("Load(missing) failed: %v", err)
	}
	if ok {
		t.Fatalf("Load(missing) = %q, true; want absent", payload)
	}
}

func testSaveThenLoad(t *testing.T, factory Factory) {
	d := factory(t)
	ctx := testCtx(t)

	want := `{"username":{"d":"virk","t":"String"}}`
	if err := d.Save(ctx, "sess-1", want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := d.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok || got != want {
		t.Fatalf("Load = %q, %v; want %q, true", got, ok, want)
	}
}

func testSaveOverwrites(t *testing.T, factory Factory) {
	d := factory(t)
	ctx := testCtx(t)

	if err := d.Save(ctx, "sess-1", `{"v":{"d":"1","t":"Number"}}`); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	want := `{"v":{"d":"2","t":"Number"}}`
	if err := d.Save(ctx, "sess-1", want); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, ok, err := d.Load(ctx, "sess-1")
	if err != nil || !ok {
		t.Fatalf("Load = %v, %v", ok, err)
	}
	if got != want {
		t.Fatalf("Load = %q, want %q", got, want)
	}
}

func testSessionIsolation(t *testing.T, factory Factory) {
	d := factory(t)
	ctx := testCtx(t)

	if err := d.Save(ctx, "sess-a", `{"who":{"d":"a","t":"String"}}`); err != nil {
		t.Fatalf("Save(a) failed: %v", err)
	}
	if err := d.Save(ctx, "sess-b", `{"who":{"d":"b","t":"String"}}`); err != nil {
		t.Fatalf("Save(b) failed: %v", err)
	}

	got, ok, err := d.Load(ctx, "sess-a")
	if err != nil || !ok {
		t.Fatalf("Load(a) = %v, %v", ok, err)
	}
	if got != `{"who":{"d":"a","t":"String"}}` {
		t.Fatalf("session a payload leaked: %q", got)
	}
}

func testRemove(t *testing.T, factory Factory) {
	d := factory(t)
	ctx := testCtx(t)

	if err := d.Save(ctx, "sess-1", `{"k":{"d":"v","t":"String"}}`); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := d.Remove(ctx, "sess-1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	_, ok, err := d.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load after Remove failed: %v", err)
	}
	if ok {
		t.Fatal("session survived Remove")
	}
}

func testRemoveAbsent(t *testing.T, factory Factory) {
	d := factory(t)
	ctx := testCtx(t)

	if err := d.Remove(ctx, "never-existed"); err != nil {
		t.Fatalf("Remove(absent) failed: %v", err)
	}
}

func testEmptyPayload(t *testing.T, factory Factory) {
	d := factory(t)
	ctx := testCtx(t)

	// Drivers may skip persisting the empty payload, so the only
	// requirement is that Save succeeds and Load is coherent.
	if err := d.Save(ctx, "sess-1", driver.EmptyPayload); err != nil {
		t.Fatalf("Save(empty) failed: %v", err)
	}

	got, ok, err := d.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok && got != driver.EmptyPayload {
		t.Fatalf("Load = %q, want %q or absent", got, driver.EmptyPayload)
	}
}
