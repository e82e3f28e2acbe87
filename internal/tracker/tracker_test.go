package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfid-access-console/internal/access"
)

func TestTracker_NoSnapshotBeforeFirstRefresh(t *testing.T) {
	tr := New(newFakeClient(), nil)

	_, err := tr.Snapshot()
	assert.ErrorIs(t, err, ErrNoSnapshot)
	_, err = tr.Inspect("P1")
	assert.ErrorIs(t, err, ErrNoSnapshot)
	_, err = tr.ToggleCardStatus(context.Background(), "P1", "C1", true)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestTracker_Refresh(t *testing.T) {
	audit := &memoryAudit{}
	tr := New(newFakeClient(), audit)

	snap, err := tr.Refresh(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.FetchedAt.IsZero())
	assert.Equal(t, 2, snap.Summary.TotalProducts)

	current, err := tr.Snapshot()
	require.NoError(t, err)
	assert.Same(t, snap, current)

	require.Len(t, audit.refreshes, 1)
	assert.True(t, audit.refreshes[0].Success)
	assert.Equal(t, snap.ID, audit.refreshes[0].SnapshotID)
	assert.Equal(t, 2, audit.refreshes[0].Entries)
}

func TestTracker_RefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	client := newFakeClient()
	audit := &memoryAudit{}
	tr := New(client, audit)

	first, err := tr.Refresh(context.Background())
	require.NoError(t, err)

	client.failFetch = errBackendDown
	_, err = tr.Refresh(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errBackendDown)

	current, err := tr.Snapshot()
	require.NoError(t, err)
	assert.Same(t, first, current)

	require.Len(t, audit.refreshes, 2)
	assert.False(t, audit.refreshes[1].Success)
	assert.Contains(t, audit.refreshes[1].Error, "backend down")
}

func TestTracker_CardStatus(t *testing.T) {
	tr := New(newFakeClient(), nil)
	_, err := tr.Refresh(context.Background())
	require.NoError(t, err)

	st, err := tr.CardStatus("P1", "C1")
	require.NoError(t, err)
	assert.Equal(t, access.StatusGranted, st.Status)
	require.NotNil(t, st.Card)
	assert.True(t, st.Card.Active)
	require.NotNil(t, st.Timestamp)
	assert.Equal(t, "Suite", st.PackageType)

	st, err = tr.CardStatus("P1", "C2")
	require.NoError(t, err)
	assert.Equal(t, access.StatusUnknown, st.Status)
	assert.Nil(t, st.Card)
	assert.Nil(t, st.Timestamp)
}

func TestTracker_Inspection(t *testing.T) {
	client := newFakeClient()
	tr := New(client, nil)
	_, err := tr.Refresh(context.Background())
	require.NoError(t, err)

	_, err = tr.Inspected()
	assert.ErrorIs(t, err, ErrNotInspecting)

	_, err = tr.Inspect("P404")
	assert.ErrorIs(t, err, ErrProductNotFound)

	view, err := tr.Inspect("P2")
	require.NoError(t, err)
	assert.True(t, view.VIP)
	assert.Equal(t, "Presidential", view.RoomName)

	// A refresh re-syncs the open detail view.
	client.mu.Lock()
	client.data.Products[1].Cards = append(client.data.Products[1].Cards, access.Card{UID: "C3", Type: "Deluxe", Active: true})
	client.entries = append(client.entries, access.RfidEntry{ProductID: "P2", UID: "C3", AccessStatus: "New", Timestamp: ts})
	client.mu.Unlock()

	_, err = tr.Refresh(context.Background())
	require.NoError(t, err)
	view, err = tr.Inspected()
	require.NoError(t, err)
	assert.Len(t, view.Cards, 2)

	// The detail view closes when its product disappears.
	client.mu.Lock()
	client.data.Products = client.data.Products[:1]
	client.mu.Unlock()
	_, err = tr.Refresh(context.Background())
	require.NoError(t, err)
	_, err = tr.Inspected()
	assert.ErrorIs(t, err, ErrNotInspecting)

	_, err = tr.Inspect("P1")
	require.NoError(t, err)
	tr.CloseInspection()
	_, err = tr.Inspected()
	assert.ErrorIs(t, err, ErrNotInspecting)
}

func TestTracker_ToggleSuccess(t *testing.T) {
	client := newFakeClient()
	audit := &memoryAudit{}
	tr := New(client, audit)
	before, err := tr.Refresh(context.Background())
	require.NoError(t, err)
	_, err = tr.Inspect("P1")
	require.NoError(t, err)

	card, err := tr.ToggleCardStatus(WithOperator(context.Background(), "frontdesk"), "P1", "C1", true)
	require.NoError(t, err)
	assert.False(t, card.Active)

	require.Len(t, client.updates, 1)
	assert.Equal(t, updateCall{"P1", "C1", false}, client.updates[0])

	after, err := tr.Snapshot()
	require.NoError(t, err)
	p1, _ := after.Product("P1")
	assert.False(t, p1.Cards[0].Active)
	assert.Equal(t, before.ID, after.ID, "a successful toggle does not refetch")

	old, _ := before.Product("P1")
	assert.True(t, old.Cards[0].Active, "earlier snapshots are not mutated")

	view, err := tr.Inspected()
	require.NoError(t, err)
	assert.False(t, view.Cards[0].Active)

	require.Len(t, audit.toggles, 1)
	assert.True(t, audit.toggles[0].Success)
	assert.Equal(t, "frontdesk", audit.toggles[0].Operator)
	assert.False(t, tr.Saving())
}

func TestTracker_ToggleRejectsUnknownTargets(t *testing.T) {
	client := newFakeClient()
	tr := New(client, nil)
	_, err := tr.Refresh(context.Background())
	require.NoError(t, err)

	_, err = tr.ToggleCardStatus(context.Background(), "P404", "C1", true)
	assert.ErrorIs(t, err, ErrProductNotFound)
	_, err = tr.ToggleCardStatus(context.Background(), "P1", "C2", true)
	assert.ErrorIs(t, err, ErrCardNotFound)
	assert.Empty(t, client.updates)
}

func TestTracker_ToggleFailureResyncs(t *testing.T) {
	client := newFakeClient()
	client.failUpdate = errBackendDown
	audit := &memoryAudit{}
	tr := New(client, audit)
	before, err := tr.Refresh(context.Background())
	require.NoError(t, err)
	_, err = tr.Inspect("P1")
	require.NoError(t, err)

	_, err = tr.ToggleCardStatus(context.Background(), "P1", "C1", true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrToggleFailed)
	assert.ErrorIs(t, err, errBackendDown)

	after, err := tr.Snapshot()
	require.NoError(t, err)
	assert.NotEqual(t, before.ID, after.ID, "state is rebuilt from a fresh fetch")
	p1, _ := after.Product("P1")
	assert.True(t, p1.Cards[0].Active)

	view, err := tr.Inspected()
	require.NoError(t, err)
	assert.True(t, view.Cards[0].Active)

	require.Len(t, audit.toggles, 1)
	assert.False(t, audit.toggles[0].Success)
	assert.Equal(t, int32(2), client.fetches.Load())
}

func TestTracker_ToggleInProgress(t *testing.T) {
	client := newFakeClient()
	client.updateStarted = make(chan struct{})
	client.updateRelease = make(chan struct{})
	tr := New(client, nil)
	_, err := tr.Refresh(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = tr.ToggleCardStatus(context.Background(), "P1", "C1", true)
	}()

	<-client.updateStarted
	assert.True(t, tr.Saving())
	_, err = tr.ToggleCardStatus(context.Background(), "P2", "C2", true)
	assert.True(t, errors.Is(err, ErrToggleInProgress))

	close(client.updateRelease)
	wg.Wait()
	assert.NoError(t, firstErr)
	assert.False(t, tr.Saving())
}

func TestTracker_ConcurrentReaders(t *testing.T) {
	tr := New(newFakeClient(), nil)
	_, err := tr.Refresh(context.Background())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = tr.Refresh(context.Background())
		}()
		go func() {
			defer wg.Done()
			snap, err := tr.Snapshot()
			if assert.NoError(t, err) {
				assert.Len(t, snap.Products, 2)
			}
		}()
	}
	wg.Wait()
}
