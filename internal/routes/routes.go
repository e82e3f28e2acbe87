package routes

import (
	"rfid-access-console/internal/storage"
	"rfid-access-console/internal/tracker"

	"github.com/gin-gonic/gin"
)

const (
	trackerKey = "Tracker"
	storageKey = "Storage"
)

// Inject makes the tracker and the audit storage available to handlers.
// storageProvider may be nil.
func Inject(t *tracker.Tracker, storageProvider storage.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(trackerKey, t)
		if storageProvider != nil {
			c.Set(storageKey, storageProvider)
		}
		c.Next()
	}
}

func GetTracker(c *gin.Context) (*tracker.Tracker, error) {
	value, exists := c.Get(trackerKey)
	if !exists {
		return nil, ErrTrackerNotFound
	}
	t, ok := value.(*tracker.Tracker)
	if !ok || t == nil {
		return nil, ErrTrackerNotFound
	}
	return t, nil
}

func GetStorageProvider(c *gin.Context) (storage.Provider, error) {
	value, exists := c.Get(storageKey)
	if !exists {
		return nil, ErrStorageProviderNotFound
	}
	p, ok := value.(storage.Provider)
	if !ok || p == nil {
		return nil, ErrStorageProviderNotFound
	}
	return p, nil
}
