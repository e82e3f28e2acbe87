package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfid-access-console/internal/jwt"
	"rfid-access-console/internal/storage"
	"rfid-access-console/internal/tracker"
)

type memoryToggles struct {
	mu      sync.Mutex
	toggles []storage.ToggleRecord
}

func (m *memoryToggles) RecordRefresh(ctx context.Context, r storage.RefreshRecord) error {
	return nil
}

func (m *memoryToggles) RecordToggle(ctx context.Context, r storage.ToggleRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggles = append(m.toggles, r)
	return nil
}

func newAuthRouter(t *testing.T, signer *jwt.Signer) (*gin.Engine, *memoryToggles) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	audit := &memoryToggles{}
	tr := tracker.New(&stubClient{}, audit)
	_, err := tr.Refresh(context.Background())
	require.NoError(t, err)

	r := gin.New()
	r.Use(ErrorHandler(), Inject(tr, nil))
	TrackingRoutes(r.Group("/api/tracking"), RequireOperator(signer))
	return r, audit
}

func toggle(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/tracking/cards/toggle",
		strings.NewReader(`{"product_id":"P1","uid":"C1","active":true}`))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireOperator(t *testing.T) {
	signer, err := jwt.NewSigner("secret", 60)
	require.NoError(t, err)
	other, err := jwt.NewSigner("other", 60)
	require.NoError(t, err)

	forged, err := other.Issue("mallory", 0)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":      "",
		"wrong scheme": "Basic Zm9vOmJhcg==",
		"empty token":  "Bearer ",
		"forged":       "Bearer " + forged,
	} {
		t.Run(name, func(t *testing.T) {
			r, audit := newAuthRouter(t, signer)
			w := toggle(r, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
			assert.Empty(t, audit.toggles, "rejected before the tracker")
		})
	}

	t.Run("valid", func(t *testing.T) {
		r, audit := newAuthRouter(t, signer)
		token, err := signer.Issue("frontdesk", 0)
		require.NoError(t, err)

		w := toggle(r, "bearer "+token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		require.Len(t, audit.toggles, 1)
		assert.Equal(t, "frontdesk", audit.toggles[0].Operator)
	})

	t.Run("reads stay open", func(t *testing.T) {
		r, _ := newAuthRouter(t, signer)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tracking/summary", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireOperator_Disabled(t *testing.T) {
	r, audit := newAuthRouter(t, nil)
	w := toggle(r, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, audit.toggles, 1)
	assert.Equal(t, "anonymous", audit.toggles[0].Operator)
}
