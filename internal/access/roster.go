package access

// Person is one roster row: a guest merged across products, or a staff member
// derived from a manager record.
type Person struct {
	UID            string     `json:"uid" yaml:"uid"`
	Name           string     `json:"name" yaml:"name"`
	PackageType    string     `json:"package_type" yaml:"package_type"`
	CheckIn        string     `json:"checkin,omitempty" yaml:"checkin,omitempty"`
	CheckOut       string     `json:"checkout,omitempty" yaml:"checkout,omitempty"`
	Role           string     `json:"role,omitempty" yaml:"role,omitempty"`
	ManagerID      FlexString `json:"managerId,omitempty" yaml:"manager_id,omitempty"`
	LinkedProducts []string   `json:"linkedProducts" yaml:"linked_products"`
	AccessRooms    []string   `json:"accessRooms" yaml:"access_rooms"`
}

func (p Person) IsStaff() bool {
	return p.Role != ""
}

type guestAccumulator struct {
	person Person
	rooms  map[string]struct{}
}

func (g *guestAccumulator) addRooms(rooms []string) {
	for _, room := range rooms {
		if _, ok := g.rooms[room]; ok {
			continue
		}
		g.rooms[room] = struct{}{}
		g.person.AccessRooms = append(g.person.AccessRooms, room)
	}
}

func (g *guestAccumulator) addProduct(productID string) {
	for _, id := range g.person.LinkedProducts {
		if id == productID {
			return
		}
	}
	g.person.LinkedProducts = append(g.person.LinkedProducts, productID)
}

// UniqueGuests merges the guests of all products by uid, in first-seen order.
func UniqueGuests(products []Product) []Person {
	byUID := make(map[string]*guestAccumulator)
	var order []*guestAccumulator

	for _, product := range products {
		for _, guest := range product.Guests {
			acc, ok := byUID[guest.UID]
			if !ok {
				acc = &guestAccumulator{
					person: Person{
						UID:            guest.UID,
						Name:           guest.Name,
						PackageType:    guest.PackageType,
						CheckIn:        guest.CheckIn,
						CheckOut:       guest.CheckOut,
						LinkedProducts: []string{},
						AccessRooms:    []string{},
					},
					rooms: make(map[string]struct{}),
				}
				byUID[guest.UID] = acc
				order = append(order, acc)
			}
			acc.addProduct(product.ProductID)
			acc.addRooms(guest.AccessRooms)
		}
	}

	out := make([]Person, 0, len(order))
	for _, acc := range order {
		out = append(out, acc.person)
	}
	return out
}

// StaffMember converts a manager record into a roster row.
func StaffMember(m Manager) Person {
	packageType := PackageServiceCard
	if m.Role == RoleManager {
		packageType = PackageMasterCard
	}
	return Person{
		UID:            m.CardUID,
		Name:           m.Name,
		PackageType:    packageType,
		Role:           m.Role,
		ManagerID:      m.ManagerID,
		LinkedProducts: []string{},
		AccessRooms:    []string{},
	}
}

// BuildRoster lists the deduplicated guests followed by one row per manager.
func BuildRoster(products []Product, managers []Manager) []Person {
	roster := UniqueGuests(products)
	for _, m := range managers {
		roster = append(roster, StaffMember(m))
	}
	return roster
}
