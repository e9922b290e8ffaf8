package service

import (
	"github.com/shopspring/decimal"

	"setrag/internal/models"
)

const Currency = "XAF"

var (
	defaultFare    = decimal.NewFromInt(10000)
	commissionRate = decimal.New(5, -2)
)

type fareKey struct {
	a, b string
}

// PriceCalculator quotes a route from a static fare table. It holds no state
// beyond the table and performs no I/O.
type PriceCalculator struct {
	fares       map[fareKey]decimal.Decimal
	defaultFare decimal.Decimal
}

func NewPriceCalculator() *PriceCalculator {
	p := &PriceCalculator{
		fares:       make(map[fareKey]decimal.Decimal),
		defaultFare: defaultFare,
	}
	p.SetFare("Libreville", "Franceville", decimal.NewFromInt(25000))
	p.SetFare("Libreville", "Moanda", decimal.NewFromInt(15000))
	p.SetFare("Libreville", "Owendo", decimal.NewFromInt(5000))
	return p
}

// SetFare registers the base fare of a route, valid in both directions.
func (p *PriceCalculator) SetFare(origin, destination string, fare decimal.Decimal) {
	p.fares[fareKey{origin, destination}] = fare
	p.fares[fareKey{destination, origin}] = fare
}

func (p *PriceCalculator) Quote(origin, destination string) models.PriceQuote {
	base, ok := p.fares[fareKey{origin, destination}]
	if !ok {
		base = p.defaultFare
	}

	commission := base.Mul(commissionRate).Round(2)
	return models.PriceQuote{
		BasePrice:  base,
		Commission: commission,
		TotalPrice: base.Add(commission),
		Currency:   Currency,
	}
}
