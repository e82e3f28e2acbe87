package tracker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"rfid-access-console/internal/access"
	"rfid-access-console/internal/backend"
	"rfid-access-console/internal/storage"
)

var errBackendDown = errors.New("backend down")

type fakeClient struct {
	mu sync.Mutex

	data        backend.AccessControlData
	rooms       []access.RoomAssignment
	assignments []access.CardPackageAssignment
	vipRooms    []access.VipRoom
	managers    []access.Manager
	entries     []access.RfidEntry

	failFetch  error
	failUpdate error

	// updateStarted is signalled and updateRelease awaited when set.
	updateStarted chan struct{}
	updateRelease chan struct{}

	fetches atomic.Int32
	updates []updateCall
}

type updateCall struct {
	productID string
	uid       string
	active    bool
}

func (f *fakeClient) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failFetch
}

func (f *fakeClient) FetchAccessControlData(ctx context.Context) (backend.AccessControlData, error) {
	f.fetches.Add(1)
	if err := f.fail(); err != nil {
		return backend.AccessControlData{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data, nil
}

func (f *fakeClient) FetchRoomAssignments(ctx context.Context) ([]access.RoomAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms, nil
}

func (f *fakeClient) FetchCardPackages(ctx context.Context) ([]access.CardPackageAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assignments, nil
}

func (f *fakeClient) FetchVipRooms(ctx context.Context) ([]access.VipRoom, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vipRooms, nil
}

func (f *fakeClient) FetchManagers(ctx context.Context) ([]access.Manager, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.managers, nil
}

func (f *fakeClient) FetchRfidEntries(ctx context.Context) ([]access.RfidEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, nil
}

func (f *fakeClient) UpdateCardStatus(ctx context.Context, productID string, uid string, active bool) error {
	if f.updateStarted != nil {
		f.updateStarted <- struct{}{}
		<-f.updateRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{productID, uid, active})
	return f.failUpdate
}

type memoryAudit struct {
	mu        sync.Mutex
	refreshes []storage.RefreshRecord
	toggles   []storage.ToggleRecord
}

func (m *memoryAudit) RecordRefresh(ctx context.Context, r storage.RefreshRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes = append(m.refreshes, r)
	return nil
}

func (m *memoryAudit) RecordToggle(ctx context.Context, r storage.ToggleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggles = append(m.toggles, r)
	return nil
}

const ts = "2024-05-01T10:00:00"

func newFakeClient() *fakeClient {
	return &fakeClient{
		data: backend.AccessControlData{
			Products: []access.Product{
				{ProductID: "P1", Cards: []access.Card{{UID: "C1", Type: "Suite", Active: true}}},
				{ProductID: "P2", Cards: []access.Card{{UID: "C2", Type: "Deluxe", Active: true}}},
			},
			Cards: []access.Card{{UID: "C1", Type: "Suite", Active: true}, {UID: "C2", Type: "Deluxe", Active: true}},
		},
		rooms:    []access.RoomAssignment{{ProductID: "P1", RoomID: "101"}},
		vipRooms: []access.VipRoom{{ProductID: "P2", Name: "Presidential"}},
		managers: []access.Manager{{CardUID: "M1", Name: "Mia", Role: "manager"}},
		entries: []access.RfidEntry{
			{ProductID: "P1", UID: "C1", AccessStatus: "Access Granted", Timestamp: ts},
			{ProductID: "P2", UID: "C2", AccessStatus: "Access Granted", Timestamp: ts},
		},
	}
}
