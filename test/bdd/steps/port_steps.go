package steps

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
)

type portContext struct {
	port   *world.Port
	quote  []world.Price
	err    error
}

func (pc *portContext) reset() {
	pc.port = nil
	pc.quote = nil
	pc.err = nil
}

// Given steps

func (pc *portContext) aPortWithCodeQuantumFoamCapacityAndStock(code string, capacity, stock int) error {
	port, err := world.NewPort(2, code, [3]int{capacity, 0, 0}, [3]int{stock, 0, 0})
	if err != nil {
		return err
	}
	pc.port = port
	return nil
}

// When steps

func (pc *portContext) thePortBuysQuantumFoamFromAPlayer(units int) error {
	if pc.port == nil {
		return fmt.Errorf("no port declared")
	}
	return pc.port.Buy(shared.CommodityQuantumFoam, units)
}

func (pc *portContext) iQuoteThePort() error {
	if pc.port == nil {
		return fmt.Errorf("no port declared")
	}
	pc.quote = pc.port.Quote()
	return nil
}

// Then steps

func (pc *portContext) quantumFoamPrice() (world.Price, error) {
	for _, p := range pc.quote {
		if p.Commodity == shared.CommodityQuantumFoam {
			return p, nil
		}
	}
	return world.Price{}, fmt.Errorf("no quantum foam line in the quote")
}

func (pc *portContext) theQuantumFoamBuyPriceShouldBe(expected int) error {
	price, err := pc.quantumFoamPrice()
	if err != nil {
		return err
	}
	if !price.Available || price.Action != world.PortBuy {
		return fmt.Errorf("expected an available buy price, got action %q available %v", price.Action, price.Available)
	}
	if price.Price != expected {
		return fmt.Errorf("expected buy price %d, got %d", expected, price.Price)
	}
	return nil
}

func (pc *portContext) theQuantumFoamSellPriceShouldBe(expected int) error {
	price, err := pc.quantumFoamPrice()
	if err != nil {
		return err
	}
	if !price.Available || price.Action != world.PortSell {
		return fmt.Errorf("expected an available sell price, got action %q available %v", price.Action, price.Available)
	}
	if price.Price != expected {
		return fmt.Errorf("expected sell price %d, got %d", expected, price.Price)
	}
	return nil
}

func (pc *portContext) noQuantumFoamPriceShouldBeAvailable() error {
	price, err := pc.quantumFoamPrice()
	if err != nil {
		return err
	}
	if price.Available {
		return fmt.Errorf("expected no available price, got %d", price.Price)
	}
	return nil
}

func InitializePortPricingScenario(ctx *godog.ScenarioContext) {
	pc := &portContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		pc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a port with code "([^"]*)", quantum foam capacity (\d+) and stock (\d+)$`, pc.aPortWithCodeQuantumFoamCapacityAndStock)

	// When steps
	ctx.Step(`^the port buys (\d+) quantum foam from a player$`, pc.thePortBuysQuantumFoamFromAPlayer)
	ctx.Step(`^I quote the port$`, pc.iQuoteThePort)

	// Then steps
	ctx.Step(`^the quantum foam buy price should be (\d+)$`, pc.theQuantumFoamBuyPriceShouldBe)
	ctx.Step(`^the quantum foam sell price should be (\d+)$`, pc.theQuantumFoamSellPriceShouldBe)
	ctx.Step(`^no quantum foam price should be available$`, pc.noQuantumFoamPriceShouldBeAvailable)
}
