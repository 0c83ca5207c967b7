package world

import (
	"math"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// PortAction is one character of a port code at a commodity position.
type PortAction byte

const (
	PortBuy  PortAction = 'B' // port buys the commodity from the player
	PortSell PortAction = 'S' // port sells the commodity to the player
)

// Port is bound to exactly one sector; its code is a 3-character string,
// one B/S tag per commodity position [quantum_foam, retro_organics,
// neuro_symbolics].
type Port struct {
	SectorID int
	Code     [3]PortAction
	Capacity [3]int
	Stock    [3]int
}

// NewPort validates and constructs a Port. code must be exactly 3 characters
// of 'B' or 'S'.
func NewPort(sectorID int, code string, capacity, stock [3]int) (*Port, error) {
	if len(code) != 3 {
		return nil, shared.NewValidationError("port_code", "must be exactly 3 characters")
	}
	var tags [3]PortAction
	for i := 0; i < 3; i++ {
		c := PortAction(code[i])
		if c != PortBuy && c != PortSell {
			return nil, shared.NewValidationError("port_code", "each character must be B or S")
		}
		tags[i] = c
	}
	for i := 0; i < 3; i++ {
		if capacity[i] < 0 || stock[i] < 0 {
			return nil, shared.NewValidationError("port", "capacity and stock must be non-negative")
		}
		if stock[i] > capacity[i] {
			return nil, shared.NewValidationError("port", "stock cannot exceed capacity")
		}
	}
	return &Port{SectorID: sectorID, Code: tags, Capacity: capacity, Stock: stock}, nil
}

// CodeString renders the 3-character port code.
func (p *Port) CodeString() string {
	return string([]byte{byte(p.Code[0]), byte(p.Code[1]), byte(p.Code[2])})
}

// Price is a single computed (commodity, price) line in a port quote. Price
// is absent (Available=false) when the port neither buys nor sells that
// commodity, or is out of room to do so.
type Price struct {
	Commodity shared.CommodityCode
	Action    PortAction
	Price     int
	Available bool
}

// Quote computes the pure, deterministic price for every commodity position
// per §4.1: sell price = round(base · (0.75 + 0.35·√(1 − stock/capacity)));
// buy price = round(base · (0.90 + 0.40·√(1 − stock/capacity))), the latter
// only while stock < capacity (the port has room to accept more).
func (p *Port) Quote() []Price {
	out := make([]Price, 0, 3)
	for i, commodity := range shared.Commodities() {
		action := p.Code[i]
		cap := p.Capacity[i]
		stock := p.Stock[i]
		base := commodity.BasePrice()

		switch {
		case action == PortSell && cap > 0:
			factor := 0.75 + 0.35*math.Sqrt(1-float64(stock)/float64(cap))
			out = append(out, Price{Commodity: commodity, Action: PortSell, Price: roundHalfAwayFromZero(float64(base) * factor), Available: true})
		case action == PortBuy && cap > 0 && stock < cap:
			factor := 0.90 + 0.40*math.Sqrt(1-float64(stock)/float64(cap))
			out = append(out, Price{Commodity: commodity, Action: PortBuy, Price: roundHalfAwayFromZero(float64(base) * factor), Available: true})
		default:
			out = append(out, Price{Commodity: commodity, Action: action, Available: false})
		}
	}
	return out
}

// PriceFor computes the single price for a specific commodity/action pair, if
// available.
func (p *Port) PriceFor(commodity shared.CommodityCode) (Price, bool) {
	for _, q := range p.Quote() {
		if q.Commodity == commodity {
			return q, q.Available
		}
	}
	return Price{}, false
}

// Sell records the port selling `units` of commodity to a player: stock
// decreases (the port is handing inventory out).
func (p *Port) Sell(commodity shared.CommodityCode, units int) error {
	idx := commodity.Index()
	if idx < 0 {
		return shared.NewValidationError("commodity", "unknown commodity")
	}
	if p.Code[idx] != PortSell {
		return shared.NewConflictError("port does not sell this commodity")
	}
	if p.Stock[idx] < units {
		return shared.NewInsufficientResourceError("port stock", units, p.Stock[idx])
	}
	p.Stock[idx] -= units
	return nil
}

// Buy records the port buying `units` of commodity from a player: stock
// increases (the port is taking inventory in), bounded by capacity.
func (p *Port) Buy(commodity shared.CommodityCode, units int) error {
	idx := commodity.Index()
	if idx < 0 {
		return shared.NewValidationError("commodity", "unknown commodity")
	}
	if p.Code[idx] != PortBuy {
		return shared.NewConflictError("port does not buy this commodity")
	}
	if p.Stock[idx]+units > p.Capacity[idx] {
		return shared.NewInsufficientResourceError("port capacity", units, p.Capacity[idx]-p.Stock[idx])
	}
	p.Stock[idx] += units
	return nil
}

func roundHalfAwayFromZero(v float64) int {
	if v >= 0 {
		return int(math.Floor(v + 0.5))
	}
	return -int(math.Floor(-v + 0.5))
}
