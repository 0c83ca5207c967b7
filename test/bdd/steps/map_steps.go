package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/gradient-bang/server/internal/domain/sectorgraph"
	"github.com/gradient-bang/server/internal/domain/world"
)

type mapContext struct {
	knowledge  *world.MapKnowledge
	firstVisit bool
	visited    bool // whether any visit has happened yet
	region     []sectorgraph.RegionNode
}

func (mc *mapContext) reset() {
	mc.knowledge = nil
	mc.firstVisit = false
	mc.visited = false
	mc.region = nil
}

func (mc *mapContext) visitTime() time.Time {
	return time.Unix(1_750_000_000, 0).UTC()
}

// Given steps

func (mc *mapContext) aCharacterWithEmptyMapKnowledge() error {
	mc.knowledge = world.NewMapKnowledge("character-1")
	return nil
}

// When steps

func (mc *mapContext) theCharacterVisitsSectorWithNeighborsAnd(sector, first, second int) error {
	if mc.knowledge == nil {
		return fmt.Errorf("no map knowledge declared")
	}
	mc.firstVisit = mc.knowledge.Upsert(sector, []int{first, second}, sector, 0, mc.visitTime(), nil)
	mc.visited = true
	return nil
}

func (mc *mapContext) iBuildTheLocalMapAroundSectorWithMaxHops(center, maxHops int) error {
	if mc.knowledge == nil {
		return fmt.Errorf("no map knowledge declared")
	}
	mc.region = sectorgraph.LocalMapRegion(mc.knowledge, center, maxHops, 200)
	return nil
}

// Then steps

func (mc *mapContext) theVisitShouldBeAFirstVisit() error {
	if !mc.visited {
		return fmt.Errorf("no visit has happened")
	}
	if !mc.firstVisit {
		return fmt.Errorf("expected a first visit")
	}
	return nil
}

func (mc *mapContext) theVisitShouldNotBeAFirstVisit() error {
	if !mc.visited {
		return fmt.Errorf("no visit has happened")
	}
	if mc.firstVisit {
		return fmt.Errorf("expected a repeat visit, got a first visit")
	}
	return nil
}

func (mc *mapContext) theTotalVisitedCountShouldBe(expected int) error {
	if mc.knowledge.TotalVisited != expected {
		return fmt.Errorf("expected total visited %d, got %d", expected, mc.knowledge.TotalVisited)
	}
	return nil
}

func (mc *mapContext) regionNode(sector int) *sectorgraph.RegionNode {
	for i := range mc.region {
		if mc.region[i].SectorID == sector {
			return &mc.region[i]
		}
	}
	return nil
}

func (mc *mapContext) theLocalMapShouldMarkSectorAsVisitedAtHop(sector, hops int) error {
	node := mc.regionNode(sector)
	if node == nil {
		return fmt.Errorf("sector %d missing from the region", sector)
	}
	if !node.Visited {
		return fmt.Errorf("expected sector %d to be visited", sector)
	}
	if node.Hops != hops {
		return fmt.Errorf("expected sector %d at %d hops, got %d", sector, hops, node.Hops)
	}
	return nil
}

func (mc *mapContext) theLocalMapShouldMarkSectorAsSeenFromSector(sector, seenFrom int) error {
	node := mc.regionNode(sector)
	if node == nil {
		return fmt.Errorf("sector %d missing from the region", sector)
	}
	if node.Visited {
		return fmt.Errorf("expected sector %d to be an unvisited stub", sector)
	}
	for _, from := range node.SeenFrom {
		if from == seenFrom {
			return nil
		}
	}
	return fmt.Errorf("expected sector %d to be seen from %d, got %v", sector, seenFrom, node.SeenFrom)
}

func (mc *mapContext) theLocalMapShouldNotContainSector(sector int) error {
	if mc.regionNode(sector) != nil {
		return fmt.Errorf("sector %d must not appear in the region", sector)
	}
	return nil
}

func InitializeMapKnowledgeScenario(ctx *godog.ScenarioContext) {
	mc := &mapContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		mc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a character with empty map knowledge$`, mc.aCharacterWithEmptyMapKnowledge)

	// When steps
	ctx.Step(`^the character visits sector (\d+) with neighbors (\d+) and (\d+)$`, mc.theCharacterVisitsSectorWithNeighborsAnd)
	ctx.Step(`^I build the local map around sector (\d+) with max (\d+) hops$`, mc.iBuildTheLocalMapAroundSectorWithMaxHops)

	// Then steps
	ctx.Step(`^the visit should be a first visit$`, mc.theVisitShouldBeAFirstVisit)
	ctx.Step(`^the visit should not be a first visit$`, mc.theVisitShouldNotBeAFirstVisit)
	ctx.Step(`^the total visited count should be (\d+)$`, mc.theTotalVisitedCountShouldBe)
	ctx.Step(`^the local map should mark sector (\d+) as visited at (\d+) hops?$`, mc.theLocalMapShouldMarkSectorAsVisitedAtHop)
	ctx.Step(`^the local map should mark sector (\d+) as seen from sector (\d+)$`, mc.theLocalMapShouldMarkSectorAsSeenFromSector)
	ctx.Step(`^the local map should not contain sector (\d+)$`, mc.theLocalMapShouldNotContainSector)
}
