package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gradient-bang/server/internal/adapters/http"
	"github.com/gradient-bang/server/internal/adapters/metrics"
	"github.com/gradient-bang/server/internal/adapters/persistence"
	"github.com/gradient-bang/server/internal/adapters/realtime"
	"github.com/gradient-bang/server/internal/application/common"
	"github.com/gradient-bang/server/internal/application/dispatcher"
	"github.com/gradient-bang/server/internal/application/tick"
	"github.com/gradient-bang/server/internal/domain/combat"
	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/sectorgraph"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
	"github.com/gradient-bang/server/internal/infrastructure/config"
	"github.com/gradient-bang/server/internal/infrastructure/database"
	"github.com/gradient-bang/server/internal/infrastructure/logging"

	"gorm.io/gorm"
)

func main() {
	fmt.Println("Gradient Bang Server v0.1.0")
	fmt.Println("===========================")

	fmt.Println("Loading configuration...")
	cfg := config.MustLoadConfig("")

	if err := run(cfg); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

// rateLimitRules is the per-method {max, window} budget enforced on top of
// the resolved character id. Every window is one minute; join has the
// smallest budget (5), ship_purchase and the admin methods get 10, move 30,
// and the hot-path combat_action, combat_tick, my_status and event_query
// calls get the largest (120).
var rateLimitRules = map[string]common.RateLimitRule{
	"join":                     {Max: 5, Window: time.Minute},
	"move":                     {Max: 30, Window: time.Minute},
	"my_status":                {Max: 120, Window: time.Minute},
	"list_known_ports":         {Max: 60, Window: time.Minute},
	"bank_transfer":            {Max: 30, Window: time.Minute},
	"transfer_credits":         {Max: 30, Window: time.Minute},
	"transfer_warp_power":      {Max: 30, Window: time.Minute},
	"purchase_fighters":        {Max: 30, Window: time.Minute},
	"ship_purchase":            {Max: 10, Window: time.Minute},
	"dump_cargo":               {Max: 30, Window: time.Minute},
	"salvage_collect":          {Max: 30, Window: time.Minute},
	"send_message":             {Max: 60, Window: time.Minute},
	"combat_initiate":          {Max: 20, Window: time.Minute},
	"combat_action":            {Max: 120, Window: time.Minute},
	"combat_tick":              {Max: 120, Window: time.Minute},
	"combat_leave_fighters":    {Max: 20, Window: time.Minute},
	"combat_set_garrison_mode": {Max: 20, Window: time.Minute},
	"event_query":              {Max: 120, Window: time.Minute},
	"test_reset":               {Max: 10, Window: time.Minute},
	"character_delete":         {Max: 10, Window: time.Minute},
}

func run(cfg *config.Config) error {
	logger := logging.NewStdLogger("gb")

	// 1. Database connection.
	fmt.Printf("Connecting to %s database...\n", cfg.Database.Type)
	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	fmt.Println("Database connected and migrated")

	// 2. Repositories and the world store.
	store := world.NewStore(
		persistence.NewGormCharacterRepository(db),
		persistence.NewGormShipRepository(db),
		persistence.NewGormShipDefinitionRepository(db),
		persistence.NewGormSectorRepository(db),
		persistence.NewGormPortRepository(db),
		persistence.NewGormGarrisonRepository(db),
		persistence.NewGormSalvageRepository(db),
		persistence.NewGormSectorContentsRepository(db),
		persistence.NewGormCorporationRepository(db),
	)
	admin := persistence.NewGormAdminRepository(db, cfg.WorldStore.FixturePath)
	eventLog := persistence.NewGormEventRepository(db)
	encounters := persistence.NewGormCombatEncounterRepository(db)
	transactions := persistence.NewGormTransactionRepository(db)
	rateLimitStore := persistence.NewGormRateLimitStore(db)
	fmt.Println("Repositories initialized")

	clock := shared.NewRealClock()

	// 3. Sector graph, visibility, and the event bus.
	graph := sectorgraph.NewGraph(store.Sectors)

	legacyNamespace, err := cfg.WorldStore.LegacyNamespaceUUID()
	if err != nil {
		return fmt.Errorf("failed to parse legacy id namespace: %w", err)
	}

	visibilitySource := persistence.NewWorldVisibilitySource(store, clock, 5*time.Minute)
	visibility := events.NewVisibilityResolver(visibilitySource, visibilitySource, visibilitySource, visibilitySource, cfg.Events.ObserverCacheTTL())

	var transport events.Transport
	if cfg.Realtime.WebhookURL != "" {
		transport = realtime.NewWebhookTransport(cfg.Realtime.WebhookURL, cfg.Realtime.RatePerSecond, cfg.Realtime.Burst)
		fmt.Printf("Realtime broadcast: webhook at %s\n", cfg.Realtime.WebhookURL)
	} else {
		transport = realtime.NoopTransport{}
		fmt.Println("Realtime broadcast: disabled (no webhook_url configured)")
	}
	retry := events.RetryPolicy{MaxAttempts: cfg.API.BroadcastRetries, Delay: cfg.API.BroadcastRetryDelay()}
	bus := events.NewBus(eventLog, visibility, transport, retry, logger)

	// 4. Combat service.
	finalizer := combat.NewFinalizer(store, 0.45, 30*time.Minute)
	combatService := combat.NewService(encounters, store, graph, bus, finalizer, transactions, time.Duration(cfg.Combat.RoundTimeoutSeconds)*time.Second)
	fmt.Println("Combat service initialized")

	// 5. Dispatcher dependencies and mediator.
	moveDelay := func(warpCost int) time.Duration {
		return time.Duration(cfg.WorldStore.MoveDelaySeconds*cfg.WorldStore.MoveDelayScale*float64(warpCost)) * time.Second
	}

	deps := &dispatcher.Deps{
		Store:      store,
		Graph:      graph,
		Bus:        bus,
		EventLog:   eventLog,
		Combat:     combatService,
		Encounters: encounters,
		Ledger:     transactions,
		Admin:      admin,
		Clock:      clock,
		MoveDelay:  moveDelay,
		ScheduleArrival: func(delay time.Duration, fn func()) {
			time.AfterFunc(delay, fn)
		},
	}

	med := common.NewMediator()
	adminGate := common.NewAdminGate(cfg.API.AdminPassword, cfg.API.AdminPasswordHash)
	resolver := common.NewActorResolver(cfg.WorldStore.AllowLegacyIDs, legacyNamespace, adminGate)
	med.RegisterMiddleware(common.AuthMiddleware(resolver))
	med.RegisterMiddleware(common.RateLimitMiddleware(rateLimitStore, rateLimitRules))
	if metrics.IsEnabled() {
		med.RegisterMiddleware(metrics.PrometheusMiddleware(metrics.NewCommandMetricsCollector()))
	}

	if err := dispatcher.RegisterAll(med, deps); err != nil {
		return fmt.Errorf("failed to register dispatcher handlers: %w", err)
	}
	fmt.Println("Mediator initialized, 20 endpoints registered")

	// 6. Background tick loop: combat round resolution and arrival recovery.
	scanner := tick.NewScanner(deps, time.Second, cfg.Combat.TickBatchSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scanner.Run(ctx)

	// 7. HTTP server.
	probe := &livenessProbe{db: db, scanner: scanner}
	server := http.NewServer(cfg.Server.Addr, med, probe, cfg.API.Token)
	fmt.Printf("Starting HTTP server on %s\n", cfg.Server.Addr)
	serverErrs := server.Start()

	fmt.Println("\nServer is ready to accept connections")
	fmt.Println("Press Ctrl+C to stop")

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-sigCtx.Done():
		fmt.Println("\nShutdown signal received")
	case err := <-serverErrs:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
	}

	cancel() // stop the tick loop
	if err := server.Stop(); err != nil {
		return fmt.Errorf("failed to shut down http server cleanly: %w", err)
	}

	fmt.Println("Server stopped")
	return nil
}

// livenessProbe satisfies http.LivenessProbe by combining the tick loop's
// last-pass timestamp with a database ping.
type livenessProbe struct {
	db      *gorm.DB
	scanner *tick.Scanner
}

func (p *livenessProbe) LastTick() time.Time { return p.scanner.LastTick() }

func (p *livenessProbe) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
