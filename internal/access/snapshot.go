package access

import "time"

// Sources are the raw backend collections one refresh works from.
type Sources struct {
	Products    []Product
	Cards       []Card
	Rooms       []RoomAssignment
	Assignments []CardPackageAssignment
	VipRooms    []VipRoom
	Managers    []Manager
	Entries     []RfidEntry
}

type Summary struct {
	TotalProducts int `json:"total_products" yaml:"total_products"`
	TotalCards    int `json:"total_cards" yaml:"total_cards"`
	TotalGuests   int `json:"total_guests" yaml:"total_guests"`
	TotalManagers int `json:"total_managers" yaml:"total_managers"`
	VIPProducts   int `json:"vip_products" yaml:"vip_products"`
	StatusRecords int `json:"status_records" yaml:"status_records"`
}

// Snapshot is one consistent reconciled view. It is treated as immutable;
// WithCardActive returns a patched copy.
type Snapshot struct {
	ID        string    `json:"id" yaml:"id"`
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`

	Products  []Product      `json:"products" yaml:"products"`
	Cards     []Card         `json:"cards" yaml:"cards"`
	Packages  PackageGroups  `json:"packages" yaml:"packages"`
	Roster    []Person       `json:"roster" yaml:"roster"`
	Universal UniversalCards `json:"universal_cards" yaml:"universal_cards"`
	Summary   Summary        `json:"summary" yaml:"summary"`

	Rooms RoomDirectory `json:"-" yaml:"-"`
	Index StatusIndex   `json:"-" yaml:"-"`
}

// ProductView is a reconciled product with its room resolved.
type ProductView struct {
	Product  `yaml:",inline"`
	RoomName string `json:"room_name" yaml:"room_name"`
	RoomID   string `json:"room_id" yaml:"room_id"`
	VIP      bool   `json:"vip" yaml:"vip"`
}

// Reconcile runs the whole pipeline over one set of sources.
func Reconcile(src Sources) *Snapshot {
	ix := BuildStatusIndex(src.Entries)
	products := ReconcileProducts(src.Products, ix, src.Assignments)
	rooms := NewRoomDirectory(src.Rooms, src.VipRooms)

	cards := make([]Card, len(src.Cards))
	copy(cards, src.Cards)

	return &Snapshot{
		Products:  products,
		Cards:     cards,
		Packages:  GroupByPackage(src.Assignments, cards, products, ix),
		Roster:    BuildRoster(products, src.Managers),
		Universal: FindUniversalCards(cards, ix),
		Summary: Summary{
			TotalProducts: len(products),
			TotalCards:    len(cards),
			TotalGuests:   len(UniqueGuests(products)),
			TotalManagers: len(src.Managers),
			VIPProducts:   rooms.VIPCount(),
			StatusRecords: ix.Len(),
		},
		Rooms: rooms,
		Index: ix,
	}
}

func (s *Snapshot) Product(productID string) (Product, bool) {
	for _, p := range s.Products {
		if p.ProductID == productID {
			return p, true
		}
	}
	return Product{}, false
}

func (s *Snapshot) View(p Product) ProductView {
	return ProductView{
		Product:  p,
		RoomName: s.Rooms.RoomName(p.ProductID),
		RoomID:   s.Rooms.RoomID(p.ProductID),
		VIP:      s.Rooms.IsVIP(p.ProductID),
	}
}

// Views returns every product with its room resolved.
func (s *Snapshot) Views() []ProductView {
	out := make([]ProductView, 0, len(s.Products))
	for _, p := range s.Products {
		out = append(out, s.View(p))
	}
	return out
}

// SetCardActive returns a copy of p with the card's active flag set. The
// second value is false when p has no such card.
func SetCardActive(p Product, uid string, active bool) (Product, bool) {
	i := p.FindCard(uid)
	if i < 0 {
		return p, false
	}
	cards := make([]Card, len(p.Cards))
	copy(cards, p.Cards)
	cards[i].Active = active
	p.Cards = cards
	return p, true
}

// WithCardActive returns a copy of the snapshot with one card's active flag
// set on one product. Only the product list is patched.
func (s *Snapshot) WithCardActive(productID string, uid string, active bool) (*Snapshot, bool) {
	for i, p := range s.Products {
		if p.ProductID != productID {
			continue
		}
		patched, ok := SetCardActive(p, uid, active)
		if !ok {
			return s, false
		}
		products := make([]Product, len(s.Products))
		copy(products, s.Products)
		products[i] = patched

		next := *s
		next.Products = products
		return &next, true
	}
	return s, false
}
