package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfid-access-console/internal/access"
	"rfid-access-console/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler, mutate ...func(*config.Backend)) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Backend{BaseURL: srv.URL + "/api", Timeout: 5, MaxEntryPages: 10}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := NewHTTPClient(cfg)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewHTTPClient_InvalidBaseURL(t *testing.T) {
	_, err := NewHTTPClient(config.Backend{BaseURL: "localhost"})
	assert.Error(t, err)
	_, err = NewHTTPClient(config.Backend{BaseURL: "://nope"})
	assert.Error(t, err)
}

func TestHTTPClient_Collections(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/access_control_data", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer t0ken", r.Header.Get("Authorization"))
		w.Write([]byte(`{"products":[{"product_id":"P1","cards":[{"uid":"C1","type":"Suite","active":true}],"guests":[{"uid":"G1","name":"Ann","package_type":"Deluxe","checkin":"2024-05-01","access_rooms":["A"]}]}],"cards":[{"uid":"C1","type":"Suite","active":true}]}`))
	})
	mux.HandleFunc("GET /api/manage_tables", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products":[{"product_id":"P1","room_id":101}],"cards":[]}`))
	})
	mux.HandleFunc("GET /api/card_packages", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"packages":[{"product_id":"P1","uid":"C9","package_type":"Suite"}]}`))
	})
	mux.HandleFunc("GET /api/vip_rooms", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"vip_rooms":[{"product_id":"P2","vip_rooms":"Presidential"}]}`))
	})
	mux.HandleFunc("GET /api/managers", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"managers":[{"cardUiId":"M1","name":"Mia","role":"manager","managerId":3}]}`))
	})

	c := newTestClient(t, mux, func(cfg *config.Backend) { cfg.Token = "t0ken" })
	ctx := context.Background()

	data, err := c.FetchAccessControlData(ctx)
	require.NoError(t, err)
	require.Len(t, data.Products, 1)
	assert.Equal(t, "Ann", data.Products[0].Guests[0].Name)
	assert.Equal(t, "2024-05-01", data.Products[0].Guests[0].CheckIn)
	assert.Len(t, data.Cards, 1)

	rooms, err := c.FetchRoomAssignments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []access.RoomAssignment{{ProductID: "P1", RoomID: "101"}}, rooms)

	pkgs, err := c.FetchCardPackages(ctx)
	require.NoError(t, err)
	assert.Equal(t, "C9", pkgs[0].UID)

	vip, err := c.FetchVipRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []access.VipRoom{{ProductID: "P2", Name: "Presidential"}}, vip)

	managers, err := c.FetchManagers(ctx)
	require.NoError(t, err)
	assert.Equal(t, access.FlexString("3"), managers[0].ManagerID)
}

func TestHTTPClient_FetchRfidEntriesFollowsPages(t *testing.T) {
	var (
		mu        sync.Mutex
		requested []int
	)
	pages := func() []int {
		mu.Lock()
		defer mu.Unlock()
		return append([]int(nil), requested...)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/rfid_entries", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		mu.Lock()
		requested = append(requested, page)
		mu.Unlock()
		writeJSON(w, map[string]any{
			"entries":       []map[string]any{{"uid": "C" + strconv.Itoa(page), "product_id": "P1", "access": "Access Granted", "time": "2024-05-01T10:00:00"}},
			"page":          page,
			"total_pages":   3,
			"total_entries": 3,
		})
	})

	t.Run("all pages", func(t *testing.T) {
		c := newTestClient(t, mux)
		entries, err := c.FetchRfidEntries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, pages())
		require.Len(t, entries, 3)
		assert.Equal(t, "Access Granted", entries[2].AccessStatus)
		assert.Equal(t, "C3", entries[2].UID)
	})

	t.Run("page limit", func(t *testing.T) {
		mu.Lock()
		requested = nil
		mu.Unlock()
		c := newTestClient(t, mux, func(cfg *config.Backend) { cfg.MaxEntryPages = 2 })
		entries, err := c.FetchRfidEntries(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, pages())
		assert.Len(t, entries, 2)
	})
}

func TestHTTPClient_UpdateCardStatus(t *testing.T) {
	received := make(chan updateCardStatusRequest, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/update_card_status", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body updateCardStatusRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received <- body
		writeJSON(w, map[string]any{"success": true})
	})

	c := newTestClient(t, mux)
	require.NoError(t, c.UpdateCardStatus(context.Background(), "P1", "C1", false))
	assert.Equal(t, updateCardStatusRequest{ProductID: "P1", UID: "C1", Active: false}, <-received)
}

func TestHTTPClient_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/managers", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Database connection failed"}`, http.StatusInternalServerError)
	})
	mux.HandleFunc("/api/vip_rooms", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"vip_rooms": [`))
	})
	mux.HandleFunc("/api/card_packages", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, map[string]any{"packages": []any{}})
	})
	mux.HandleFunc("/api/access_control_data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c := newTestClient(t, mux)

	_, err := c.FetchManagers(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "500")

	_, err = c.FetchVipRooms(context.Background())
	assert.ErrorIs(t, err, ErrMalformedResponse)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.FetchCardPackages(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)

	data, err := c.FetchAccessControlData(context.Background())
	require.NoError(t, err, "an empty body decodes to empty collections")
	assert.Empty(t, data.Products)
}
