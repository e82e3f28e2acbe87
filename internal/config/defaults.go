package config

var defaults = map[string]any{
	"log_level": "info",

	"listen_addr":      ":8080",
	"allowed_networks": "",

	"refresh_interval": "@every 30s",

	"auth.secret":    "",
	"auth.token_ttl": uint(12 * 60),

	"backend.base_url":        "http://localhost:5000/api",
	"backend.token":           "",
	"backend.timeout":         15,
	"backend.max_entry_pages": 100,

	"storage.sqlite.path": "./data/audit.db",
}

func Defaults() map[string]any {
	values := make(map[string]any)
	for k, v := range defaults {
		values[k] = v
	}
	return values
}
