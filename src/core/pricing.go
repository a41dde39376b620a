package core

// Quote is the priced outcome of a registration attempt. Exempt quotes skip
// payment capture entirely and confirm on the spot.
type Quote struct {
	Original float64
	Discount float64
	Final    float64
	Exempt   bool
}

// PricePolicy maps a registrant's reputation score onto a discount tier.
type PricePolicy struct {
	MinPayable float64
}

func (p PricePolicy) DiscountRate(reputation float64) float64 {
	switch {
	case reputation >= 8.5:
		return 0.25
	case reputation >= 7.0:
		return 0.15
	case reputation >= 6.0:
		return 0.10
	}
	return 0
}

func (p PricePolicy) Price(original, reputation float64) Quote {
	discount := original * p.DiscountRate(reputation)
	final := original - discount
	if final < 0 {
		final = 0
	}
	return Quote{
		Original: original,
		Discount: discount,
		Final:    final,
		Exempt:   final < p.MinPayable,
	}
}
