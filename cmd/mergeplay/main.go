package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mrand "math/rand"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/mergeplay/mergeplay/internal/config"
	"github.com/mergeplay/mergeplay/internal/core/event"
	coresys "github.com/mergeplay/mergeplay/internal/core/system"
	"github.com/mergeplay/mergeplay/internal/data"
	"github.com/mergeplay/mergeplay/internal/persist"
	"github.com/mergeplay/mergeplay/internal/render"
	"github.com/mergeplay/mergeplay/internal/scripting"
	"github.com/mergeplay/mergeplay/internal/system"
	"github.com/mergeplay/mergeplay/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             mergeplay  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := max(46-runewidth.StringWidth(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-runewidth.StringWidth(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Main game logic ───────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/mergeplay.toml"
	if p := os.Getenv("MERGEPLAY_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
	case err != nil:
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Load data tables
	printSection("Data")
	kinds, err := data.LoadKindTable(cfg.Data.Kinds)
	if err != nil {
		return fmt.Errorf("load kinds: %w", err)
	}
	printStat("item kinds", kinds.Count())
	orderTable, err := data.LoadOrderTable(cfg.Data.Orders, kinds)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}
	printStat("orders", orderTable.Count())
	layout, err := data.LoadLayout(cfg.Data.Layout, kinds)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	printStat("starting items", len(layout.Placements))

	// 4. Lua hooks
	lua, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer lua.Close()
	printOK("Lua hooks loaded")
	fmt.Println()

	// 5. Game state and systems
	g := cfg.Game
	bus := event.NewBus()
	state := world.NewState(world.NewGrid(g.GridWidth, g.GridHeight, g.CellSize, world.Vec2{X: g.OriginX, Y: g.OriginY}), kinds)
	tweens := system.NewTweenSystem(state.ECS())
	wallet := system.NewWallet(world.Vec2{X: g.WalletX, Y: g.WalletY}, g.CoinFlight, tweens, bus, log)
	equipment := system.NewEquipment(bus, log)
	anchors := slotAnchors(g)
	orders := system.NewOrderBook(state, bus, anchors, wallet, log)
	orders.SetPolicy(lua)
	merger := system.NewMergeResolver(state, bus, tweens, log)
	drag := system.NewDragController(state, merger, orders, tweens, bus, g.SnapDuration, log)

	seed := g.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	spawner := system.NewSpawner(state, orders, tweens, bus, mrand.New(mrand.NewSource(seed)), log)
	spawner.SetPicker(lua)
	spawner.SetReserver(drag)
	spawner.ApplyLayout(layout)
	orders.Load(orderTable.All(), g.RefillOrders)

	input := system.NewInputSystem(cfg.Input.QueueSize, cfg.Input.MaxEventsPerTick, drag, orders, spawner, log)

	runner := coresys.NewRunner()
	runner.Register(input)
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(tweens)
	if g.Audit {
		runner.Register(system.NewAuditSystem(state, log))
	}
	runner.Register(system.NewCleanupSystem(state.ECS()))

	// 6. Optional order ledger
	var (
		ledger     *system.PersistenceSystem
		ledgerRepo *persist.LedgerRepo
		session    string
	)
	if cfg.Database.Enabled {
		printSection("Database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")

		ledgerRepo = persist.NewLedgerRepo(db)
		recent, err := ledgerRepo.Recent(ctx, 10)
		if err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
		printStat("recent ledger entries", len(recent))
		if len(recent) > 0 {
			last := recent[0]
			log.Info("last ledger entry",
				zap.String("session", last.Session),
				zap.String("order", last.OrderID),
				zap.Int32("reward", last.Reward),
				zap.Time("at", last.CreatedAt))
		}
		fmt.Println()

		session = newSessionID()
		ledger = system.NewPersistenceSystem(bus, ledgerRepo, session, cfg.Database.FlushInterval, cfg.Database.WriteTimeout, log)
		runner.Register(ledger)
		log.Info("order ledger enabled", zap.String("session", session))
	}

	// 7. Front-end
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if cfg.Terminal.Enabled {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("terminal init: %w", err)
		}
		defer screen.Fini()
		if cfg.Terminal.Mouse {
			screen.EnableMouse(tcell.MouseMotionEvents)
		}

		renderer := render.NewRenderer(screen, render.Scene{
			State:     state,
			Drag:      drag,
			Orders:    orders,
			Tweens:    tweens,
			Wallet:    wallet,
			Equipment: equipment,
		}, cfg.Terminal.UnitCols, cfg.Terminal.UnitRows)
		runner.Register(render.NewSystem(renderer))

		presenter := render.NewPresenter(screen, *renderer.Camera(), input, anchors, g.CellSize, log)
		go presenter.Run(ctx, stop)
	} else {
		go runConsole(ctx, os.Stdin, state.Grid, input, stop, log)
	}

	// 8. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(g.TickRate)
	defer ticker.Stop()

	log.Info("game loop started",
		zap.Duration("tick", g.TickRate),
		zap.Int("items", state.Count()))

	shutdown := func(reason string) {
		log.Info("shutting down",
			zap.String("reason", reason),
			zap.Uint64("ticks", runner.Ticks()),
			zap.Int("coins", wallet.Coins()),
			zap.Int("orders_fulfilled", orders.Fulfilled()))
		if ledger != nil {
			// Deliver events emitted on the last tick before the final write.
			bus.SwapBuffers()
			bus.DispatchAll()
			if err := ledger.Flush(); err != nil {
				log.Error("final ledger flush failed", zap.Int("pending", ledger.Pending()), zap.Error(err))
			}
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.WriteTimeout)
			defer cancel()
			n, coins, err := ledgerRepo.SessionTotal(ctx, session)
			if err != nil {
				log.Error("session total query failed", zap.Error(err))
				return
			}
			log.Info("session ledger",
				zap.String("session", session),
				zap.Int64("orders", n),
				zap.Int64("coins", coins))
		}
	}

	for {
		select {
		case <-ticker.C:
			runner.Tick(g.TickRate)
		case <-ctx.Done():
			shutdown("player quit")
			return nil
		case sig := <-shutdownCh:
			shutdown(sig.String())
			return nil
		}
	}
}

// slotAnchors spreads the order slots evenly under the board.
func slotAnchors(g config.GameConfig) []world.Vec2 {
	anchors := make([]world.Vec2, g.OrderSlots)
	mid := float64(g.OrderSlots-1) / 2
	for i := range anchors {
		anchors[i] = world.Vec2{X: g.OriginX + (float64(i)-mid)*g.SlotSpacing, Y: g.SlotAnchorY}
	}
	return anchors
}

func newSessionID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.File != "" {
		// The terminal front-end owns stdout; colour codes would litter the file.
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
		if cfg.Format != "json" {
			zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
	}

	return zapCfg.Build()
}
