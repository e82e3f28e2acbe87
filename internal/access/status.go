package access

import (
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
)

// StatusKind is the classified form of a reader's free-text access status.
type StatusKind int

const (
	StatusUnknown StatusKind = iota
	StatusGranted
	StatusDenied
	StatusNew
	StatusReactivated
	StatusDeleted
)

var statusNames = map[StatusKind]string{
	StatusUnknown:     "unknown",
	StatusGranted:     "granted",
	StatusDenied:      "denied",
	StatusNew:         "new",
	StatusReactivated: "reactivated",
	StatusDeleted:     "deleted",
}

// Markers are checked in this order, so "Access Denied (card deleted)" is
// Deleted and never Granted.
var statusMarkers = []struct {
	marker string
	kind   StatusKind
}{
	{"deleted", StatusDeleted},
	{"denied", StatusDenied},
	{"reactivated", StatusReactivated},
	{"new", StatusNew},
	{"granted", StatusGranted},
}

var folder = cases.Fold()

// ParseStatus classifies a free-text status such as "Access Granted".
// Matching is case-insensitive and by substring. Empty or unrecognised text is
// StatusUnknown.
func ParseStatus(raw string) StatusKind {
	text := strings.TrimSpace(raw)
	if text == "" {
		return StatusUnknown
	}
	text = folder.String(text)
	for _, m := range statusMarkers {
		if strings.Contains(text, m.marker) {
			return m.kind
		}
	}
	return StatusUnknown
}

func (k StatusKind) String() string {
	if name, ok := statusNames[k]; ok {
		return name
	}
	return statusNames[StatusUnknown]
}

func (k StatusKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k StatusKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// Admits reports whether the status is positive proof of access.
func (k StatusKind) Admits() bool {
	return k == StatusGranted || k == StatusReactivated || k == StatusNew
}

// Revoked reports whether the card was removed from the product.
func (k StatusKind) Revoked() bool {
	return k == StatusDeleted
}

// Blocks reports whether the status keeps a card out of the package grouping.
func (k StatusKind) Blocks() bool {
	return k == StatusDeleted || k == StatusDenied
}
