package access

import (
	"encoding/json"
	"strings"
)

// Known package types. Order is the display order of the package grouping.
const (
	PackageStandard    = "Standard"
	PackageDeluxe      = "Deluxe"
	PackageSuite       = "Suite"
	PackageExecutive   = "Executive"
	PackageGeneral     = "General"
	PackageServiceCard = "Service Card"
	PackageMasterCard  = "Master Card"
)

var PackageTypes = []string{
	PackageStandard,
	PackageDeluxe,
	PackageSuite,
	PackageExecutive,
	PackageGeneral,
	PackageServiceCard,
	PackageMasterCard,
}

const RoleManager = "manager"

// FlexString decodes a JSON string, number or null into a string. The backend
// is not consistent about numeric identifiers.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*s = ""
		return nil
	}
	if raw[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = FlexString(n.String())
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

type Card struct {
	UID         string `json:"uid" yaml:"uid"`
	Type        string `json:"type" yaml:"type"`
	Active      bool   `json:"active" yaml:"active"`
	IsGuestCard bool   `json:"isGuestCard,omitempty" yaml:"is_guest_card,omitempty"`
}

type Guest struct {
	UID         string   `json:"uid" yaml:"uid"`
	Name        string   `json:"name" yaml:"name"`
	PackageType string   `json:"package_type" yaml:"package_type"`
	CheckIn     string   `json:"checkin,omitempty" yaml:"checkin,omitempty"`
	CheckOut    string   `json:"checkout,omitempty" yaml:"checkout,omitempty"`
	AccessRooms []string `json:"access_rooms" yaml:"access_rooms"`
}

type Product struct {
	ProductID string  `json:"product_id" yaml:"product_id"`
	Cards     []Card  `json:"cards" yaml:"cards"`
	Guests    []Guest `json:"guests" yaml:"guests"`
}

// FindCard returns the index of the card with uid, or -1.
func (p *Product) FindCard(uid string) int {
	for i := range p.Cards {
		if p.Cards[i].UID == uid {
			return i
		}
	}
	return -1
}

// CardPackageAssignment binds a card to a product independently of the
// product's own card list.
type CardPackageAssignment struct {
	ProductID   string `json:"product_id" yaml:"product_id"`
	UID         string `json:"uid" yaml:"uid"`
	PackageType string `json:"package_type" yaml:"package_type"`
}

type VipRoom struct {
	ProductID string `json:"product_id" yaml:"product_id"`
	Name      string `json:"vip_rooms" yaml:"name"`
}

type RoomAssignment struct {
	ProductID string     `json:"product_id" yaml:"product_id"`
	RoomID    FlexString `json:"room_id" yaml:"room_id"`
}

type Manager struct {
	CardUID   string     `json:"cardUiId" yaml:"card_uid"`
	Name      string     `json:"name" yaml:"name"`
	Role      string     `json:"role" yaml:"role"`
	ManagerID FlexString `json:"managerId" yaml:"manager_id"`
}

// RfidEntry is one reader event. Older readers report `access` and `time`
// instead of `access_status` and `timestamp`.
type RfidEntry struct {
	UID          string `json:"uid"`
	ProductID    string `json:"product_id"`
	AccessStatus string `json:"access_status"`
	Timestamp    string `json:"timestamp"`
}

func (e *RfidEntry) UnmarshalJSON(data []byte) error {
	var aux struct {
		UID          FlexString  `json:"uid"`
		ProductID    FlexString  `json:"product_id"`
		AccessStatus *string     `json:"access_status"`
		Access       *string     `json:"access"`
		Timestamp    *FlexString `json:"timestamp"`
		Time         *FlexString `json:"time"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	e.UID = string(aux.UID)
	e.ProductID = string(aux.ProductID)
	e.AccessStatus = ""
	if aux.AccessStatus != nil && *aux.AccessStatus != "" {
		e.AccessStatus = *aux.AccessStatus
	} else if aux.Access != nil {
		e.AccessStatus = *aux.Access
	}
	e.Timestamp = ""
	if aux.Timestamp != nil && *aux.Timestamp != "" {
		e.Timestamp = string(*aux.Timestamp)
	} else if aux.Time != nil {
		e.Timestamp = string(*aux.Time)
	}
	return nil
}

// packageOrDefault returns t, or fallback when t is blank.
func packageOrDefault(t string, fallback string) string {
	if strings.TrimSpace(t) == "" {
		return fallback
	}
	return t
}
