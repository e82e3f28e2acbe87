package access

// UniversalCards are the master and service cards that open any room.
type UniversalCards struct {
	MasterCards  []Card `json:"master_cards" yaml:"master_cards"`
	ServiceCards []Card `json:"service_cards" yaml:"service_cards"`
}

// FindUniversalCards selects master and service cards from the global card
// collection that were granted access somewhere and never deleted.
func FindUniversalCards(cards []Card, ix StatusIndex) UniversalCards {
	out := UniversalCards{MasterCards: []Card{}, ServiceCards: []Card{}}
	for _, c := range cards {
		if c.Type != PackageMasterCard && c.Type != PackageServiceCard {
			continue
		}
		granted := ix.AnyForUID(c.UID, func(k StatusKind) bool { return k == StatusGranted })
		if !granted || ix.AnyForUID(c.UID, StatusKind.Revoked) {
			continue
		}
		if c.Type == PackageMasterCard {
			out.MasterCards = append(out.MasterCards, c)
		} else {
			out.ServiceCards = append(out.ServiceCards, c)
		}
	}
	return out
}
