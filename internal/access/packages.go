package access

import "sort"

// PackageCard is a card filed under a package type, with the products that
// list it.
type PackageCard struct {
	Card     `yaml:",inline"`
	Products []string `json:"products" yaml:"products"`
}

// PackageGroups maps a package type to its cards. The fixed package types are
// always present.
type PackageGroups map[string][]PackageCard

// Types returns the fixed package types followed by any ad hoc ones, sorted.
func (g PackageGroups) Types() []string {
	types := append([]string(nil), PackageTypes...)
	fixed := make(map[string]struct{}, len(PackageTypes))
	for _, t := range PackageTypes {
		fixed[t] = struct{}{}
	}
	var extra []string
	for t := range g {
		if _, ok := fixed[t]; !ok {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	return append(types, extra...)
}

// Find returns the package type a uid was filed under.
func (g PackageGroups) Find(uid string) (string, PackageCard, bool) {
	for t, cards := range g {
		for _, c := range cards {
			if c.UID == uid {
				return t, c, true
			}
		}
	}
	return "", PackageCard{}, false
}

// linkedProducts returns, per uid, the ids of the products whose reconciled
// card list contains it.
func linkedProducts(products []Product) map[string][]string {
	links := make(map[string][]string)
	for _, p := range products {
		for _, c := range p.Cards {
			ids := links[c.UID]
			if len(ids) > 0 && ids[len(ids)-1] == p.ProductID {
				continue
			}
			links[c.UID] = append(ids, p.ProductID)
		}
	}
	return links
}

// GroupByPackage files every card under exactly one package type. Direct
// assignments are classified first, then the remaining cards of the global
// collection by their own type. A card with a deleted or denied status on any
// product is left out.
func GroupByPackage(assignments []CardPackageAssignment, cards []Card, products []Product, ix StatusIndex) PackageGroups {
	groups := make(PackageGroups, len(PackageTypes))
	for _, t := range PackageTypes {
		groups[t] = []PackageCard{}
	}

	globalCards := make(map[string]Card, len(cards))
	for _, c := range cards {
		if _, ok := globalCards[c.UID]; !ok {
			globalCards[c.UID] = c
		}
	}

	links := linkedProducts(products)
	annotate := func(c Card) PackageCard {
		ids := make([]string, len(links[c.UID]))
		copy(ids, links[c.UID])
		return PackageCard{Card: c, Products: ids}
	}

	processed := make(map[string]struct{})
	blocked := func(uid string) bool {
		return ix.AnyForUID(uid, StatusKind.Blocks)
	}

	for _, a := range assignments {
		if a.UID == "" {
			continue
		}
		if _, done := processed[a.UID]; done {
			continue
		}
		if blocked(a.UID) {
			continue
		}
		packageType := packageOrDefault(a.PackageType, PackageGeneral)
		card, ok := globalCards[a.UID]
		if !ok {
			card = Card{UID: a.UID, Type: packageType, Active: true}
		}
		groups[packageType] = append(groups[packageType], annotate(card))
		processed[a.UID] = struct{}{}
	}

	for _, c := range cards {
		if c.UID == "" {
			continue
		}
		if _, done := processed[c.UID]; done {
			continue
		}
		if blocked(c.UID) {
			continue
		}
		packageType := packageOrDefault(c.Type, PackageGeneral)
		groups[packageType] = append(groups[packageType], annotate(c))
		processed[c.UID] = struct{}{}
	}

	return groups
}
