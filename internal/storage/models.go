package storage

import "time"

// RefreshRecord is the audit row of one refresh attempt.
type RefreshRecord struct {
	ID         string    `db:"id" json:"id" yaml:"id"`
	SnapshotID string    `db:"snapshot_id" json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	StartedAt  time.Time `db:"started_at" json:"started_at" yaml:"started_at"`
	DurationMS int64     `db:"duration_ms" json:"duration_ms" yaml:"duration_ms"`
	Products   int       `db:"products" json:"products" yaml:"products"`
	Cards      int       `db:"cards" json:"cards" yaml:"cards"`
	Entries    int       `db:"entries" json:"entries" yaml:"entries"`
	Success    bool      `db:"success" json:"success" yaml:"success"`
	Error      string    `db:"error" json:"error,omitempty" yaml:"error,omitempty"`
}

// ToggleRecord is the audit row of one card status toggle.
type ToggleRecord struct {
	ID        string    `db:"id" json:"id" yaml:"id"`
	ProductID string    `db:"product_id" json:"product_id" yaml:"product_id"`
	UID       string    `db:"uid" json:"uid" yaml:"uid"`
	Active    bool      `db:"active" json:"active" yaml:"active"`
	Operator  string    `db:"operator" json:"operator,omitempty" yaml:"operator,omitempty"`
	Success   bool      `db:"success" json:"success" yaml:"success"`
	Error     string    `db:"error" json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at" yaml:"created_at"`
}
