package access

// assignmentSet holds the direct card bindings of one product, deduplicated by
// uid. The last package type wins, the first position is kept.
type assignmentSet struct {
	order []string
	types map[string]string
}

// groupAssignments returns the direct bindings per product and the product
// ids in first-seen order.
func groupAssignments(assignments []CardPackageAssignment) (map[string]*assignmentSet, []string) {
	byProduct := make(map[string]*assignmentSet)
	var productOrder []string

	for _, a := range assignments {
		if a.ProductID == "" || a.UID == "" {
			continue
		}
		set, ok := byProduct[a.ProductID]
		if !ok {
			set = &assignmentSet{types: make(map[string]string)}
			byProduct[a.ProductID] = set
			productOrder = append(productOrder, a.ProductID)
		}
		if _, seen := set.types[a.UID]; !seen {
			set.order = append(set.order, a.UID)
		}
		set.types[a.UID] = packageOrDefault(a.PackageType, PackageGeneral)
	}

	return byProduct, productOrder
}

// ReconcileProduct filters and annotates the cards of one product.
//
// Declared cards and guest cards need positive proof of access (granted, new
// or reactivated). Directly assigned cards are kept unless the card was
// deleted from this product; when already present they only contribute their
// package type.
func ReconcileProduct(product Product, ix StatusIndex, assignments []CardPackageAssignment) Product {
	byProduct, _ := groupAssignments(assignments)
	return reconcileProduct(product, ix, byProduct[product.ProductID])
}

func reconcileProduct(product Product, ix StatusIndex, direct *assignmentSet) Product {
	seen := make(map[string]struct{})
	cards := make([]Card, 0, len(product.Cards)+len(product.Guests))

	for _, card := range product.Cards {
		if _, dup := seen[card.UID]; dup {
			continue
		}
		if !ix.Status(product.ProductID, card.UID).Admits() {
			continue
		}
		cards = append(cards, card)
		seen[card.UID] = struct{}{}
	}

	for _, guest := range product.Guests {
		if guest.UID == "" {
			continue
		}
		if _, dup := seen[guest.UID]; dup {
			continue
		}
		if !ix.Status(product.ProductID, guest.UID).Admits() {
			continue
		}
		cards = append(cards, Card{
			UID:         guest.UID,
			Type:        packageOrDefault(guest.PackageType, PackageStandard),
			Active:      true,
			IsGuestCard: true,
		})
		seen[guest.UID] = struct{}{}
	}

	if direct != nil {
		for _, uid := range direct.order {
			packageType := direct.types[uid]
			if _, exists := seen[uid]; exists {
				for i := range cards {
					if cards[i].UID == uid {
						cards[i].Type = packageType
						break
					}
				}
				continue
			}
			if ix.Status(product.ProductID, uid).Revoked() {
				continue
			}
			cards = append(cards, Card{UID: uid, Type: packageType, Active: true})
			seen[uid] = struct{}{}
		}
	}

	out := product
	out.Cards = cards
	out.Guests = make([]Guest, len(product.Guests))
	copy(out.Guests, product.Guests)
	return out
}

// ReconcileProducts reconciles every product. Products that only appear in the
// direct assignments are appended, in first-seen order, with no declared cards
// or guests.
func ReconcileProducts(products []Product, ix StatusIndex, assignments []CardPackageAssignment) []Product {
	byProduct, productOrder := groupAssignments(assignments)

	known := make(map[string]struct{}, len(products))
	out := make([]Product, 0, len(products))
	for _, p := range products {
		known[p.ProductID] = struct{}{}
		out = append(out, reconcileProduct(p, ix, byProduct[p.ProductID]))
	}

	for _, id := range productOrder {
		if _, ok := known[id]; ok {
			continue
		}
		known[id] = struct{}{}
		out = append(out, reconcileProduct(Product{ProductID: id}, ix, byProduct[id]))
	}

	return out
}
