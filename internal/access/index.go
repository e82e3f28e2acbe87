package access

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

type StatusKey struct {
	ProductID string
	UID       string
}

// String renders the key as "{product_id}-{uid}".
func (k StatusKey) String() string {
	return k.ProductID + "-" + k.UID
}

// StatusRecord is the latest known status of one card on one product.
type StatusRecord struct {
	ProductID string     `json:"product_id" yaml:"product_id"`
	UID       string     `json:"uid" yaml:"uid"`
	Status    StatusKind `json:"status" yaml:"status"`
	RawStatus string     `json:"raw_status" yaml:"raw_status"`
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
}

func (r StatusRecord) Key() StatusKey {
	return StatusKey{ProductID: r.ProductID, UID: r.UID}
}

// StatusIndex maps (product_id, uid) to the most recent reader status. It is
// built once per refresh and never mutated afterwards.
type StatusIndex struct {
	records map[StatusKey]StatusRecord
	byUID   map[string][]StatusKey
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02",
}

// ParseTimestamp parses the timestamp formats the backend and the readers emit.
// Unparseable input yields the zero time, which sorts before every valid one.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	// Unix seconds
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	return time.Time{}
}

// BuildStatusIndex keeps, per (product_id, uid), the entry with the greatest
// timestamp. Equal timestamps resolve to the entry seen last.
func BuildStatusIndex(entries []RfidEntry) StatusIndex {
	ix := StatusIndex{
		records: make(map[StatusKey]StatusRecord, len(entries)),
		byUID:   make(map[string][]StatusKey),
	}

	for _, entry := range entries {
		record := StatusRecord{
			ProductID: entry.ProductID,
			UID:       entry.UID,
			Status:    ParseStatus(entry.AccessStatus),
			RawStatus: entry.AccessStatus,
			Timestamp: ParseTimestamp(entry.Timestamp),
		}
		key := record.Key()

		stored, exists := ix.records[key]
		if !exists {
			ix.byUID[key.UID] = append(ix.byUID[key.UID], key)
		}
		if !exists || !record.Timestamp.Before(stored.Timestamp) {
			ix.records[key] = record
		}
	}

	return ix
}

func (ix StatusIndex) Lookup(productID string, uid string) (StatusRecord, bool) {
	r, ok := ix.records[StatusKey{ProductID: productID, UID: uid}]
	return r, ok
}

// Status returns the latest status for the pair, StatusUnknown when none was
// recorded.
func (ix StatusIndex) Status(productID string, uid string) StatusKind {
	if r, ok := ix.Lookup(productID, uid); ok {
		return r.Status
	}
	return StatusUnknown
}

// ForUID returns the records of uid on every product it was seen on.
func (ix StatusIndex) ForUID(uid string) []StatusRecord {
	keys := ix.byUID[uid]
	out := make([]StatusRecord, 0, len(keys))
	for _, k := range keys {
		out = append(out, ix.records[k])
	}
	return out
}

// AnyForUID reports whether some record of uid satisfies match.
func (ix StatusIndex) AnyForUID(uid string, match func(StatusKind) bool) bool {
	for _, k := range ix.byUID[uid] {
		if match(ix.records[k].Status) {
			return true
		}
	}
	return false
}

func (ix StatusIndex) Len() int {
	return len(ix.records)
}

// Records returns every record ordered by key.
func (ix StatusIndex) Records() []StatusRecord {
	out := make([]StatusRecord, 0, len(ix.records))
	for _, r := range ix.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].UID < out[j].UID
	})
	return out
}
