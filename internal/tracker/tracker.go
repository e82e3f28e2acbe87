// Package tracker owns the current reconciled snapshot. It refreshes it from
// the backend, serves it to readers and applies card status toggles.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"rfid-access-console/internal/access"
	"rfid-access-console/internal/backend"
	"rfid-access-console/internal/storage"
)

var (
	ErrNoSnapshot       = errors.New("no snapshot loaded yet")
	ErrProductNotFound  = errors.New("product not found")
	ErrCardNotFound     = errors.New("card not found on product")
	ErrToggleInProgress = errors.New("a card status change is already being saved")
	ErrToggleFailed     = errors.New("card status change failed")
	ErrNotInspecting    = errors.New("no product is being inspected")
)

// AuditLog receives one record per refresh and per toggle.
type AuditLog interface {
	RecordRefresh(ctx context.Context, record storage.RefreshRecord) error
	RecordToggle(ctx context.Context, record storage.ToggleRecord) error
}

// CardStatus is the view of one card on one product.
type CardStatus struct {
	ProductID   string            `json:"product_id" yaml:"product_id"`
	UID         string            `json:"uid" yaml:"uid"`
	Status      access.StatusKind `json:"status" yaml:"status"`
	RawStatus   string            `json:"raw_status" yaml:"raw_status"`
	Timestamp   *time.Time        `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Card        *access.Card      `json:"card,omitempty" yaml:"card,omitempty"`
	PackageType string            `json:"package_type,omitempty" yaml:"package_type,omitempty"`
}

type Tracker struct {
	client backend.Client
	audit  AuditLog
	logger *slog.Logger

	mu        sync.RWMutex
	snapshot  *access.Snapshot
	inspected *access.ProductView

	saving atomic.Bool

	now func() time.Time
}

// New returns a tracker with no snapshot. audit may be nil.
func New(client backend.Client, audit AuditLog) *Tracker {
	return &Tracker{
		client: client,
		audit:  audit,
		logger: slog.With("component", "tracker"),
		now:    time.Now,
	}
}

// Refresh fetches every backend collection concurrently and, when all of them
// succeed, replaces the snapshot with a freshly reconciled one. On failure the
// previous snapshot is kept.
func (t *Tracker) Refresh(ctx context.Context) (*access.Snapshot, error) {
	started := t.now()
	src, err := t.fetch(ctx)
	if err != nil {
		t.logger.Error("Refresh failed", "error", err)
		t.recordRefresh(ctx, storage.RefreshRecord{
			StartedAt:  started,
			DurationMS: time.Since(started).Milliseconds(),
			Error:      err.Error(),
		})
		return nil, fmt.Errorf("refresh: %w", err)
	}

	snap := access.Reconcile(src)
	snap.ID = uuid.NewString()
	snap.FetchedAt = started

	t.mu.Lock()
	t.snapshot = snap
	t.resyncInspection()
	t.mu.Unlock()

	t.logger.Info("Snapshot refreshed",
		"snapshot_id", snap.ID,
		"products", snap.Summary.TotalProducts,
		"cards", snap.Summary.TotalCards,
		"entries", len(src.Entries),
		"duration", time.Since(started))

	t.recordRefresh(ctx, storage.RefreshRecord{
		SnapshotID: snap.ID,
		StartedAt:  started,
		DurationMS: time.Since(started).Milliseconds(),
		Products:   snap.Summary.TotalProducts,
		Cards:      snap.Summary.TotalCards,
		Entries:    len(src.Entries),
		Success:    true,
	})
	return snap, nil
}

func (t *Tracker) fetch(ctx context.Context) (access.Sources, error) {
	var src access.Sources
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := t.client.FetchAccessControlData(ctx)
		if err != nil {
			return fmt.Errorf("access control data: %w", err)
		}
		src.Products, src.Cards = data.Products, data.Cards
		return nil
	})
	g.Go(func() (err error) {
		if src.Rooms, err = t.client.FetchRoomAssignments(ctx); err != nil {
			return fmt.Errorf("room assignments: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if src.Assignments, err = t.client.FetchCardPackages(ctx); err != nil {
			return fmt.Errorf("card packages: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if src.VipRooms, err = t.client.FetchVipRooms(ctx); err != nil {
			return fmt.Errorf("vip rooms: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if src.Managers, err = t.client.FetchManagers(ctx); err != nil {
			return fmt.Errorf("managers: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if src.Entries, err = t.client.FetchRfidEntries(ctx); err != nil {
			return fmt.Errorf("rfid entries: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return access.Sources{}, err
	}
	return src, nil
}

// Snapshot returns the current snapshot. Callers must not modify it.
func (t *Tracker) Snapshot() (*access.Snapshot, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return t.snapshot, nil
}

// Product returns one reconciled product with its room resolved.
func (t *Tracker) Product(productID string) (access.ProductView, error) {
	snap, err := t.Snapshot()
	if err != nil {
		return access.ProductView{}, err
	}
	p, ok := snap.Product(productID)
	if !ok {
		return access.ProductView{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	return snap.View(p), nil
}

// CardStatus reports the latest reader status of a card on a product along
// with the card as it appears in the reconciled product, if it does.
func (t *Tracker) CardStatus(productID string, uid string) (CardStatus, error) {
	snap, err := t.Snapshot()
	if err != nil {
		return CardStatus{}, err
	}

	out := CardStatus{ProductID: productID, UID: uid, Status: access.StatusUnknown}
	if r, ok := snap.Index.Lookup(productID, uid); ok {
		out.Status = r.Status
		out.RawStatus = r.RawStatus
		if !r.Timestamp.IsZero() {
			ts := r.Timestamp
			out.Timestamp = &ts
		}
	}
	if p, ok := snap.Product(productID); ok {
		if i := p.FindCard(uid); i >= 0 {
			card := p.Cards[i]
			out.Card = &card
		}
	}
	if pt, _, ok := snap.Packages.Find(uid); ok {
		out.PackageType = pt
	}
	return out, nil
}

// Inspect opens the detail view of one product.
func (t *Tracker) Inspect(productID string) (access.ProductView, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.snapshot == nil {
		return access.ProductView{}, ErrNoSnapshot
	}
	p, ok := t.snapshot.Product(productID)
	if !ok {
		return access.ProductView{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	view := t.snapshot.View(p)
	t.inspected = &view
	return view, nil
}

func (t *Tracker) CloseInspection() {
	t.mu.Lock()
	t.inspected = nil
	t.mu.Unlock()
}

// Inspected returns the product currently open in the detail view.
func (t *Tracker) Inspected() (access.ProductView, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.inspected == nil {
		return access.ProductView{}, ErrNotInspecting
	}
	return *t.inspected, nil
}

// resyncInspection reloads the inspected product from the current snapshot.
// Callers hold t.mu.
func (t *Tracker) resyncInspection() {
	if t.inspected == nil {
		return
	}
	p, ok := t.snapshot.Product(t.inspected.ProductID)
	if !ok {
		t.logger.Warn("Inspected product disappeared, closing detail view", "product_id", t.inspected.ProductID)
		t.inspected = nil
		return
	}
	view := t.snapshot.View(p)
	t.inspected = &view
}

// Saving reports whether a toggle is in flight.
func (t *Tracker) Saving() bool {
	return t.saving.Load()
}

type operatorKey struct{}

// WithOperator tags ctx with the operator responsible for a card status change.
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey{}, operator)
}

func operatorFrom(ctx context.Context) string {
	operator, _ := ctx.Value(operatorKey{}).(string)
	return operator
}

// ToggleCardStatus flips a card's active flag. The change is applied to the
// snapshot and the inspected product first, then sent to the backend. When the
// backend rejects it, local state is rebuilt from a full refresh and the
// error is returned.
func (t *Tracker) ToggleCardStatus(ctx context.Context, productID string, uid string, currentActive bool) (access.Card, error) {
	if !t.saving.CompareAndSwap(false, true) {
		return access.Card{}, ErrToggleInProgress
	}
	defer t.saving.Store(false)

	active := !currentActive
	card, err := t.applyLocal(productID, uid, active)
	if err != nil {
		return access.Card{}, err
	}

	operator := operatorFrom(ctx)
	logger := t.logger.With("product_id", productID, "uid", uid, "active", active, "operator", operator)
	err = t.client.UpdateCardStatus(ctx, productID, uid, active)

	record := storage.ToggleRecord{
		ProductID: productID,
		UID:       uid,
		Active:    active,
		Operator:  operator,
		Success:   err == nil,
		CreatedAt: t.now(),
	}
	if err != nil {
		record.Error = err.Error()
	}
	t.recordToggle(ctx, record)

	if err != nil {
		logger.Error("Card status change rejected, resyncing", "error", err)
		if _, rerr := t.Refresh(context.WithoutCancel(ctx)); rerr != nil {
			logger.Error("Resync after failed toggle failed", "error", rerr)
		}
		return access.Card{}, fmt.Errorf("%w: %w", ErrToggleFailed, err)
	}

	logger.Info("Card status changed")
	return card, nil
}

func (t *Tracker) applyLocal(productID string, uid string, active bool) (access.Card, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snapshot == nil {
		return access.Card{}, ErrNoSnapshot
	}
	p, ok := t.snapshot.Product(productID)
	if !ok {
		return access.Card{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}
	i := p.FindCard(uid)
	if i < 0 {
		return access.Card{}, fmt.Errorf("%w: %s on %s", ErrCardNotFound, uid, productID)
	}

	next, _ := t.snapshot.WithCardActive(productID, uid, active)
	t.snapshot = next

	if t.inspected != nil && t.inspected.ProductID == productID {
		if patched, ok := access.SetCardActive(t.inspected.Product, uid, active); ok {
			t.inspected.Product = patched
		}
	}

	card := p.Cards[i]
	card.Active = active
	return card, nil
}

func (t *Tracker) recordRefresh(ctx context.Context, record storage.RefreshRecord) {
	if t.audit == nil {
		return
	}
	if err := t.audit.RecordRefresh(context.WithoutCancel(ctx), record); err != nil {
		t.logger.Warn("Failed to record refresh", "error", err)
	}
}

func (t *Tracker) recordToggle(ctx context.Context, record storage.ToggleRecord) {
	if t.audit == nil {
		return
	}
	if err := t.audit.RecordToggle(context.WithoutCancel(ctx), record); err != nil {
		t.logger.Warn("Failed to record toggle", "error", err)
	}
}
