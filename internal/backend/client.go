// Package backend talks to the property management REST backend that owns
// products, cards, packages, staff and the RFID reader log.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rfid-access-console/internal/access"
	"rfid-access-console/internal/config"
)

var (
	ErrUnavailable       = errors.New("backend unavailable")
	ErrUnexpectedStatus  = errors.New("unexpected backend response status")
	ErrMalformedResponse = errors.New("malformed backend response")
)

// Client is the read/write surface the tracker needs from the backend.
type Client interface {
	FetchAccessControlData(ctx context.Context) (AccessControlData, error)
	FetchRoomAssignments(ctx context.Context) ([]access.RoomAssignment, error)
	FetchCardPackages(ctx context.Context) ([]access.CardPackageAssignment, error)
	FetchVipRooms(ctx context.Context) ([]access.VipRoom, error)
	FetchManagers(ctx context.Context) ([]access.Manager, error)
	FetchRfidEntries(ctx context.Context) ([]access.RfidEntry, error)
	UpdateCardStatus(ctx context.Context, productID string, uid string, active bool) error
}

type AccessControlData struct {
	Products []access.Product `json:"products"`
	Cards    []access.Card    `json:"cards"`
}

type manageTablesResponse struct {
	Products []access.RoomAssignment `json:"products"`
}

type cardPackagesResponse struct {
	Packages []access.CardPackageAssignment `json:"packages"`
}

type vipRoomsResponse struct {
	VipRooms []access.VipRoom `json:"vip_rooms"`
}

type managersResponse struct {
	Managers []access.Manager `json:"managers"`
}

// EntriesPage is one page of the RFID reader log.
type EntriesPage struct {
	Entries      []access.RfidEntry `json:"entries"`
	Page         int                `json:"page"`
	TotalPages   int                `json:"total_pages"`
	TotalEntries int                `json:"total_entries"`
}

type updateCardStatusRequest struct {
	ProductID string `json:"product_id"`
	UID       string `json:"uid"`
	Active    bool   `json:"active"`
}

// HTTPClient implements Client over the backend's JSON API.
type HTTPClient struct {
	baseURL  *url.URL
	token    string
	maxPages int
	http     *http.Client
	logger   *slog.Logger
}

func NewHTTPClient(cfg config.Backend) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid backend base url %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend base url %q: scheme and host are required", cfg.BaseURL)
	}

	maxPages := cfg.MaxEntryPages
	if maxPages <= 0 {
		maxPages = 1
	}

	return &HTTPClient{
		baseURL:  base,
		token:    cfg.Token,
		maxPages: maxPages,
		http:     &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		logger:   slog.With("component", "backend"),
	}, nil
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *HTTPClient) do(ctx context.Context, method string, path string, query url.Values, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Backend request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}

func (c *HTTPClient) FetchAccessControlData(ctx context.Context) (AccessControlData, error) {
	var data AccessControlData
	err := c.do(ctx, http.MethodGet, "access_control_data", nil, nil, &data)
	return data, err
}

func (c *HTTPClient) FetchRoomAssignments(ctx context.Context) ([]access.RoomAssignment, error) {
	var resp manageTablesResponse
	err := c.do(ctx, http.MethodGet, "manage_tables", nil, nil, &resp)
	return resp.Products, err
}

func (c *HTTPClient) FetchCardPackages(ctx context.Context) ([]access.CardPackageAssignment, error) {
	var resp cardPackagesResponse
	err := c.do(ctx, http.MethodGet, "card_packages", nil, nil, &resp)
	return resp.Packages, err
}

func (c *HTTPClient) FetchVipRooms(ctx context.Context) ([]access.VipRoom, error) {
	var resp vipRoomsResponse
	err := c.do(ctx, http.MethodGet, "vip_rooms", nil, nil, &resp)
	return resp.VipRooms, err
}

func (c *HTTPClient) FetchManagers(ctx context.Context) ([]access.Manager, error) {
	var resp managersResponse
	err := c.do(ctx, http.MethodGet, "managers", nil, nil, &resp)
	return resp.Managers, err
}

// FetchEntriesPage reads one page of the reader log. Pages start at 1.
func (c *HTTPClient) FetchEntriesPage(ctx context.Context, page int) (EntriesPage, error) {
	var resp EntriesPage
	query := url.Values{"page": []string{strconv.Itoa(page)}}
	err := c.do(ctx, http.MethodGet, "rfid_entries", query, nil, &resp)
	return resp, err
}

// FetchRfidEntries follows the reader log pagination up to the configured
// page limit.
func (c *HTTPClient) FetchRfidEntries(ctx context.Context) ([]access.RfidEntry, error) {
	var entries []access.RfidEntry
	for page := 1; page <= c.maxPages; page++ {
		resp, err := c.FetchEntriesPage(ctx, page)
		if err != nil {
			return nil, err
		}
		entries = append(entries, resp.Entries...)
		if resp.TotalPages <= page || len(resp.Entries) == 0 {
			return entries, nil
		}
	}
	c.logger.Warn("RFID log truncated", "max_pages", c.maxPages, "entries", len(entries))
	return entries, nil
}

func (c *HTTPClient) UpdateCardStatus(ctx context.Context, productID string, uid string, active bool) error {
	body := updateCardStatusRequest{ProductID: productID, UID: uid, Active: active}
	return c.do(ctx, http.MethodPost, "update_card_status", nil, body, nil)
}
