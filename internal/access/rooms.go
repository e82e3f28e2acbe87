package access

const (
	UnknownRoom    = "Unknown Room"
	UnknownVipRoom = "Unknown VIP Room"
	NoRoom         = "N/A"
)

// RoomDirectory resolves product ids to room names from the room table and the
// VIP room list.
type RoomDirectory struct {
	rooms map[string]string
	vip   map[string]string
}

func NewRoomDirectory(rooms []RoomAssignment, vipRooms []VipRoom) RoomDirectory {
	d := RoomDirectory{
		rooms: make(map[string]string, len(rooms)),
		vip:   make(map[string]string, len(vipRooms)),
	}
	for _, r := range rooms {
		if _, ok := d.rooms[r.ProductID]; !ok {
			d.rooms[r.ProductID] = r.RoomID.String()
		}
	}
	for _, v := range vipRooms {
		if _, ok := d.vip[v.ProductID]; !ok {
			d.vip[v.ProductID] = v.Name
		}
	}
	return d
}

func (d RoomDirectory) IsVIP(productID string) bool {
	_, ok := d.vip[productID]
	return ok
}

// RoomName prefers the VIP display name over the plain room id.
func (d RoomDirectory) RoomName(productID string) string {
	if name, ok := d.vip[productID]; ok {
		if name == "" {
			return UnknownVipRoom
		}
		return name
	}
	if room, ok := d.rooms[productID]; ok {
		return room
	}
	return UnknownRoom
}

// RoomID prefers the room table over the VIP list.
func (d RoomDirectory) RoomID(productID string) string {
	if room, ok := d.rooms[productID]; ok {
		return room
	}
	if name, ok := d.vip[productID]; ok {
		return name
	}
	return NoRoom
}

func (d RoomDirectory) VIPCount() int {
	return len(d.vip)
}
