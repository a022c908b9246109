package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"guild-sync/core/loader"
	"guild-sync/core/logger"
	"guild-sync/core/middleware/auth"
	"guild-sync/core/middleware/rayid"
	"guild-sync/core/scheduler"
	"guild-sync/feature/guild"
	guildsync "guild-sync/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "guild-sync/docs/swagger"
)

// @title Guild Sync API
// @version 1.0
// @description Admin API for the guild data synchronization engine.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sync scheduler and admin server",
	Long:  `Starts the periodic sync scheduler and the HTTP admin server.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		a, err := newApp(ctx, true)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer a.Close()
		zap.ReplaceGlobals(a.logger)
		logg := a.logger

		if err := guild.Migrate(a.db); err != nil {
			logg.Fatal("Failed to migrate schema", zap.Error(err))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		mgr := loader.NewManager()
		mgr.Register(guild.NewFeature(a.repo, logg))
		mgr.Register(guildsync.NewFeature(a.orchestrator, logg))

		// RayID first so every later log line carries it
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		sched := scheduler.New(logg)
		if interval := a.cfg.Sync.Interval(); interval > 0 {
			sched.AddTicker("sync", interval, a.cfg.Sync.RunOnStart, func(ctx context.Context) {
				err := a.orchestrator.RunSync(ctx)
				if err != nil && !errors.Is(err, guildsync.ErrSyncInProgress) {
					logg.Error("Scheduled sync failed", zap.Error(err))
				}
			})
			logg.Info("Sync scheduled",
				zap.Duration("interval", interval),
				zap.Bool("run_on_start", a.cfg.Sync.RunOnStart),
				zap.Strings("tasks", sched.ListTickers()),
			)
		} else {
			logg.Warn("Sync interval is zero, scheduler disabled")
		}

		go func() {
			logg.Info("Starting server", zap.String("addr", a.cfg.Server.Addr()))
			if err := app.Listen(a.cfg.Server.Addr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down...")
		sched.Stop()
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
