package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/veyrn/ravenfell/internal/ai"
	"github.com/veyrn/ravenfell/internal/config"
	"github.com/veyrn/ravenfell/internal/data"
	"github.com/veyrn/ravenfell/internal/db"
	"github.com/veyrn/ravenfell/internal/faction"
	"github.com/veyrn/ravenfell/internal/inspect"
	"github.com/veyrn/ravenfell/internal/model"
	"github.com/veyrn/ravenfell/internal/spawn"
	"github.com/veyrn/ravenfell/internal/world"
)

const ConfigPath = "config/worldserver.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := ConfigPath
	if p := os.Getenv("RAVENFELL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadWorldServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	// Per-tick AI decision logging, separate from the global level so it can
	// run under an info logger.
	ai.EnableDebugLogging(cfg.DebugAI || logLevel == slog.LevelDebug)

	runID := uuid.New()
	started := time.Now()
	slog.Info("ravenfell worldserver starting", "run_id", runID, "log_level", cfg.LogLevel)

	// Relationship table
	table, err := faction.LoadTable(cfg.RelationshipsPath)
	if err != nil {
		return fmt.Errorf("loading relationships: %w", err)
	}
	registry := faction.NewRegistry()
	registry.SetTable(table)

	// Actor templates and spawn list
	templates, err := data.LoadTemplates(cfg.TemplatesPath)
	if err != nil {
		return fmt.Errorf("loading actor templates: %w", err)
	}
	spawnDefs, err := data.LoadSpawns(cfg.SpawnsPath)
	if err != nil {
		return fmt.Errorf("loading spawns: %w", err)
	}

	w := world.NewWorld(cfg.CellSize)
	aiMgr := ai.NewTickManager(cfg.TickInterval())
	spawnMgr := spawn.NewManager(templates, spawnDefs, w, registry, aiMgr, cfg.TickInterval())

	// Persistence is optional: without a database the server runs fully
	// in-memory and every actor spawns from template defaults.
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		spawnMgr.SetStore(db.NewAffiliationRepository(database.Pool()), runID)
	}

	hub := inspect.NewHub()
	if cfg.Inspect.Enabled {
		spawnMgr.SetPublishFunc(func(eventType string, actor model.Handle, data map[string]any) {
			hub.Broadcast(inspect.NewEvent(eventType, actor.String(), data))
		})
	}

	if err := spawnMgr.SpawnAll(ctx); err != nil {
		slog.Warn("world populated with errors", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting AI tick manager", "interval", cfg.TickInterval())
		if err := aiMgr.Start(gctx); err != nil {
			return fmt.Errorf("AI tick manager: %w", err)
		}
		return nil
	})

	if cfg.WatchData {
		watcher, err := faction.NewWatcher(cfg.RelationshipsPath)
		if err != nil {
			return fmt.Errorf("watching relationships: %w", err)
		}
		g.Go(func() error {
			defer watcher.Close()
			slog.Info("watching relationship data", "path", cfg.RelationshipsPath)
			for {
				select {
				case tbl := <-watcher.Tables:
					// Install at a tick boundary so no controller sees two
					// tables within one tick.
					aiMgr.Defer(func() {
						if registry.SetTable(tbl) {
							slog.Info("relationship table reloaded",
								"fingerprint", tbl.FingerprintHex()[:12])
						}
					})
				case err := <-watcher.Errors:
					slog.Warn("relationship reload failed, keeping active table", "error", err)
				case <-gctx.Done():
					return nil
				}
			}
		})
	}

	if cfg.Inspect.Enabled {
		srv := inspect.NewServer(cfg.Inspect.Addr(), hub, inspect.Sources{
			Status: func() inspect.Status {
				return inspect.Status{
					RunID:            runID.String(),
					UptimeSeconds:    int64(time.Since(started).Seconds()),
					Actors:           w.Count(),
					Controllers:      aiMgr.Count(),
					TableFingerprint: registry.Table().FingerprintHex(),
				}
			},
			Relationships: func() inspect.Relationships {
				return relationshipsView(registry)
			},
			Actors: func() []inspect.ActorView {
				return actorsView(w, spawnMgr)
			},
			Detect: func(handle string) (inspect.DetectResult, error) {
				return detectView(spawnMgr, handle)
			},
		})
		g.Go(func() error {
			if err := srv.Run(gctx); err != nil {
				return fmt.Errorf("inspect server: %w", err)
			}
			return nil
		})
	}

	err = g.Wait()

	// Persist affiliations on the way out, bounded so a dead database cannot
	// hang shutdown.
	saveCtx, cancelSave := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelSave()
	if saveErr := spawnMgr.SaveAffiliations(saveCtx); saveErr != nil {
		slog.Error("saving affiliations on shutdown", "error", saveErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// relationshipsView flattens the active table for the diagnostic endpoint.
func relationshipsView(registry *faction.Registry) inspect.Relationships {
	table := registry.Table()
	out := inspect.Relationships{Default: table.Default().String()}
	for _, e := range table.Entries() {
		out.Entries = append(out.Entries, inspect.RelationEntry{
			A:        e.A.String(),
			B:        e.B.String(),
			Relation: e.Relation.String(),
			Note:     e.Note,
		})
	}
	return out
}

// actorsView snapshots every live actor for the diagnostic endpoint.
func actorsView(w *world.World, spawnMgr *spawn.Manager) []inspect.ActorView {
	var views []inspect.ActorView
	w.ForEachActor(func(h model.Handle, a *model.Actor) bool {
		view := inspect.ActorView{
			Handle:    h.String(),
			Name:      a.Name(),
			Kind:      a.Kind().String(),
			Health:    a.CurrentHealth(),
			MaxHealth: a.MaxHealth(),
		}
		loc := a.Location()
		view.X, view.Y, view.Z = loc.X, loc.Y, loc.Z

		if aff := a.Affiliation(); aff != nil {
			view.Faction = aff.Faction().String()
		}
		if machine, ok := spawnMgr.Machine(h); ok {
			view.State = machine.State().String()
			if target := machine.Target(); !target.IsZero() {
				view.Target = target.String()
			}
		}

		views = append(views, view)
		return true
	})
	return views
}

// detectView runs one actor's detector against the live world without
// touching its state.
func detectView(spawnMgr *spawn.Manager, handle string) (inspect.DetectResult, error) {
	h, err := model.ParseHandle(handle)
	if err != nil {
		return inspect.DetectResult{}, fmt.Errorf("parsing actor handle: %w", err)
	}
	machine, ok := spawnMgr.Machine(h)
	if !ok {
		return inspect.DetectResult{}, fmt.Errorf("no AI controller for actor %s", handle)
	}

	res := inspect.DetectResult{Actor: handle}
	if target, found := machine.DetectOnce(); found {
		res.Found = true
		res.Target = target.String()
	}
	return res, nil
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
