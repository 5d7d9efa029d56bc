package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishReachesSubscriber(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, dispose, err := bus.Subscribe("notes")
	require.NoError(t, err)
	defer dispose()

	want := Change{Collection: "notes", ID: "n1", Op: OpInsert}
	require.NoError(t, bus.Publish(want))

	select {
	case got := <-ch:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}

func TestBus_CollectionsAreIsolated(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	notesCh, dispose, err := bus.Subscribe("notes")
	require.NoError(t, err)
	defer dispose()

	require.NoError(t, bus.Publish(Change{Collection: "messages", ID: "m1", Op: OpInsert}))

	select {
	case c := <-notesCh:
		t.Fatalf("unexpected cross-collection delivery: %+v", c)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBus_DisposerStopsDelivery(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch, dispose, err := bus.Subscribe("days")
	require.NoError(t, err)

	dispose()

	// Publishing after disposal must not block or panic; the channel is
	// eventually closed.
	_ = bus.Publish(Change{Collection: "days", ID: "2026-01-01", Op: OpPatch})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel never closed after dispose")
		}
	}
}
