package app

import (
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"

	"rfid-access-console/internal/config"
	"rfid-access-console/internal/jwt"
	"rfid-access-console/internal/routes"
	"rfid-access-console/internal/storage"
	"rfid-access-console/internal/tracker"

	"github.com/gin-gonic/gin"
)

func securityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")

	// Snapshots change on every refresh
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Next()
}

// Middleware to check if the IP is allowed.
func IPAccessControl(allowedCIDRs []string) gin.HandlerFunc {
	var parsedCIDRs []*net.IPNet

	// Allow local networks in debug mode
	if os.Getenv("GIN_MODE") != "release" {
		localhostCIDRs := []string{"127.0.0.1/8", "::1/128"}
		allowedCIDRs = append(allowedCIDRs, localhostCIDRs...)
	}

	for _, cidr := range allowedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			slog.Warn("Invalid CIDR", "cidr", cidr)
			continue
		}
		slog.Debug("Allowed CIDR", "cidr", cidr)
		parsedCIDRs = append(parsedCIDRs, network)
	}

	return func(c *gin.Context) {
		clientIP := net.ParseIP(c.ClientIP())
		if clientIP == nil {
			// Should not happen
			slog.Warn("Invalid client IP", "ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}

		for _, cidr := range parsedCIDRs {
			if cidr.Contains(clientIP) {
				c.Next()
				return
			}
		}
		slog.Warn("IP not allowed", "ip", clientIP)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}

func splitNetworks(networks string) []string {
	var allowedCIDRs []string
	for cidr := range strings.SplitSeq(networks, ",") {
		// Remove spaces and ignore empty sets
		if cidr := strings.TrimSpace(cidr); cidr != "" {
			allowedCIDRs = append(allowedCIDRs, cidr)
		}
	}
	return allowedCIDRs
}

// HTTPServer builds the JSON API over the tracker. storageProvider may be nil,
// in which case the audit endpoints report the storage as unavailable.
// signer may be nil, which leaves the mutating endpoints open.
func HTTPServer(cfg *config.Config, t *tracker.Tracker, storageProvider storage.Provider, signer *jwt.Signer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	if cfg.AllowedNetworks != "" {
		slog.Debug("Enabling IP access control", "allowed_networks", cfg.AllowedNetworks)
		r.Use(IPAccessControl(splitNetworks(cfg.AllowedNetworks)))
	}
	r.Use(securityHeaders)
	r.Use(routes.ErrorHandler())
	r.Use(routes.Inject(t, storageProvider))

	routes.Health(&r.RouterGroup)

	rg := r.Group("/api/tracking")
	routes.TrackingRoutes(rg, routes.RequireOperator(signer))

	return r
}
