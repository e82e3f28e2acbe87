package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfid-access-console/internal/access"
	"rfid-access-console/internal/backend"
	"rfid-access-console/internal/config"
	"rfid-access-console/internal/jwt"
	"rfid-access-console/internal/tracker"
)

type emptyClient struct{}

func (emptyClient) FetchAccessControlData(context.Context) (backend.AccessControlData, error) {
	return backend.AccessControlData{}, nil
}
func (emptyClient) FetchRoomAssignments(context.Context) ([]access.RoomAssignment, error) {
	return nil, nil
}
func (emptyClient) FetchCardPackages(context.Context) ([]access.CardPackageAssignment, error) {
	return nil, nil
}
func (emptyClient) FetchVipRooms(context.Context) ([]access.VipRoom, error) { return nil, nil }
func (emptyClient) FetchManagers(context.Context) ([]access.Manager, error) { return nil, nil }
func (emptyClient) FetchRfidEntries(context.Context) ([]access.RfidEntry, error) {
	return nil, nil
}
func (emptyClient) UpdateCardStatus(context.Context, string, string, bool) error { return nil }

func TestHTTPServer_SecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := HTTPServer(&config.Config{}, tracker.New(emptyClient{}, nil), nil, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func TestHTTPServer_IPAccessControl(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("GIN_MODE", "release")
	r := HTTPServer(&config.Config{AllowedNetworks: "10.0.0.0/8, bogus ,"}, tracker.New(emptyClient{}, nil), nil, nil)

	allowed := httptest.NewRequest(http.MethodGet, "/health", nil)
	allowed.RemoteAddr = "10.1.2.3:4567"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, allowed)
	assert.Equal(t, http.StatusOK, w.Code)

	denied := httptest.NewRequest(http.MethodGet, "/health", nil)
	denied.RemoteAddr = "192.168.1.10:4567"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, denied)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSplitNetworks(t *testing.T) {
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, splitNetworks(" 10.0.0.0/8,,192.168.0.0/16 "))
	assert.Empty(t, splitNetworks(""))
}

func TestHTTPServer_OperatorToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	signer, err := jwt.NewSigner("secret", 60)
	require.NoError(t, err)
	r := HTTPServer(&config.Config{}, tracker.New(emptyClient{}, nil), nil, signer)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/tracking/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := signer.Issue("frontdesk", 0)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/tracking/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
