package tracker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfid-access-console/internal/access"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (c *countingRefresher) Refresh(ctx context.Context) (*access.Snapshot, error) {
	c.calls.Add(1)
	return &access.Snapshot{}, nil
}

func TestNewPoller_InvalidSpec(t *testing.T) {
	_, err := NewPoller(&countingRefresher{}, "every now and then", 0)
	assert.Error(t, err)
}

func TestPoller_RunsOnSchedule(t *testing.T) {
	target := &countingRefresher{}
	p, err := NewPoller(target, "@every 1s", time.Second)
	require.NoError(t, err)

	p.Start()
	assert.False(t, p.Next().IsZero())
	assert.Eventually(t, func() bool { return target.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Stop(ctx)
}

func TestPoller_RefreshesTracker(t *testing.T) {
	tr := New(newFakeClient(), nil)
	p, err := NewPoller(tr, "@every 1h", 0)
	require.NoError(t, err)

	p.run()
	_, err = tr.Snapshot()
	assert.NoError(t, err)
}
