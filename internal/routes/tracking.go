package routes

import (
	"fmt"
	"net/http"
	"strconv"

	"rfid-access-console/internal/tracker"
	"rfid-access-console/internal/utils"

	"github.com/gin-gonic/gin"
)

type toggleRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	UID       string `json:"uid" binding:"required"`
	// Current state of the card; the new state is its negation.
	Active *bool `json:"active" binding:"required"`
}

type inspectRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// TrackingRoutes registers the read API over the current snapshot and the
// card status and inspection actions. writeMiddleware guards the endpoints
// that change state.
func TrackingRoutes(r *gin.RouterGroup, writeMiddleware ...gin.HandlerFunc) {
	r.GET("/snapshot", getSnapshot)
	r.GET("/summary", getSummary)
	r.GET("/products", listProducts)
	r.GET("/products/:product_id", getProduct)
	r.GET("/packages", listPackages)
	r.GET("/roster", listRoster)
	r.GET("/universal_cards", listUniversalCards)
	r.GET("/status/:product_id/:uid", getCardStatus)

	r.GET("/inspect", getInspected)

	w := r.Group("", writeMiddleware...)
	w.POST("/refresh", refresh)
	w.POST("/cards/toggle", toggleCard)
	w.POST("/inspect", openInspection)
	w.DELETE("/inspect", closeInspection)

	r.GET("/audit/refreshes", listRefreshAudit)
	r.GET("/audit/toggles", listToggleAudit)
}

func getSnapshot(c *gin.Context) {
	t, err := GetTracker(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	snap, err := t.Snapshot()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":              snap.ID,
		"fetched_at":      snap.FetchedAt,
		"products":        snap.Views(),
		"cards":           snap.Cards,
		"packages":        snap.Packages,
		"package_types":   snap.Packages.Types(),
		"roster":          snap.Roster,
		"universal_cards": snap.Universal,
		"summary":         snap.Summary,
	})
}

func getSummary(c *gin.Context) {
	t, err := GetTracker(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	snap, err := t.Snapshot()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         snap.ID,
		"fetched_at": snap.FetchedAt,
		"summary":    snap.Summary,
	})
}

func listProducts(c *gin.Context) {
	t, err := GetTracker(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	snap, err := t.Snapshot()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": snap.Views()})
}

func getProduct(c *gin.Context) {
	t, err := GetTracker(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	view, err := t.Product(c.Param("product_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func listPackages(c *gin.Context) {
	t, err := GetTracker(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	snap, err := t.Snapshot()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"package_types": snap.Packages.Types(),
		"packages":      snap.Packages,
	})
}

func listRoster(c *gin.Context) {
	t, err := GetTracker(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	snap, err := t.Snapshot()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"roster": snap.Roster})
}

func listUniversalCards(c *gin.Context) {
	t, err := GetTracker(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	snap, err := t.Snapshot()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap.Universal)
}

func getCardStatus(c *gin.Context) {
	t, err := GetTracker(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	status, err := t.CardStatus(c.Param("product_id"), c.Param("uid"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func refresh(c *gin.Context) {
	t, err := GetTracker(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	snap, err := t.Refresh(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"id":         snap.ID,
		"fetched_at": snap.FetchedAt,
		"summary":    snap.Summary,
		"snapshot":   utils.UrlFor(c, "/api/tracking/snapshot"),
	})
}

func toggleCard(c *gin.Context) {
	t, err := GetTracker(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	ctx := tracker.WithOperator(c.Request.Context(), operatorOf(c))
	card, err := t.ToggleCardStatus(ctx, req.ProductID, req.UID, *req.Active)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	verb := "disabled"
	if card.Active {
		verb = "enabled"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    fmt.Sprintf("Card %s has been %s", card.UID, verb),
		"product_id": req.ProductID,
		"card":       card,
	})
}

func getInspected(c *gin.Context) {
	t, err := GetTracker(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	view, err := t.Inspected()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func openInspection(c *gin.Context) {
	t, err := GetTracker(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var req inspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	view, err := t.Inspect(req.ProductID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func closeInspection(c *gin.Context) {
	t, err := GetTracker(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	t.CloseInspection()
	c.Status(http.StatusNoContent)
}

// limitParam reads ?limit=, defaulting to 0 (storage default).
func limitParam(c *gin.Context) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", ErrInvalidParameter)
	}
	return limit, nil
}

func listRefreshAudit(c *gin.Context) {
	p, err := GetStorageProvider(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	limit, err := limitParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	records, err := p.ListRefreshes(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refreshes": records})
}

func listToggleAudit(c *gin.Context) {
	p, err := GetStorageProvider(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	limit, err := limitParam(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	records, err := p.ListToggles(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"toggles": records})
}
