package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"brick-manager/core/loader"
	"brick-manager/core/logger"
	"brick-manager/core/middleware/auth"
	"brick-manager/core/middleware/rayid"
	"brick-manager/feature/images"
	"brick-manager/feature/integrity"
	"brick-manager/feature/missingparts"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the brick manager server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		logg := c.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			ReadTimeout:           c.cfg.Server.ReadTimeout(),
			WriteTimeout:          c.cfg.Server.WriteTimeout(),
		})

		mgr := loader.NewManager(logg)
		mgr.Register(missingparts.NewFeature(c.store, c.aggregator, logg))
		mgr.Register(images.NewFeature(c.cache, logg))
		mgr.Register(integrity.NewFeature(c.integrityOptions(), logg))

		// RayID first so every later log line carries it
		app.Use(rayid.New())

		app.Use(func(ctx *fiber.Ctx) error {
			l := logger.WithRayID(logg, ctx)
			l.Info("Request started",
				zap.String("method", ctx.Method()),
				zap.String("path", ctx.Path()),
				zap.String("ip", ctx.IP()),
			)
			err := ctx.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// Cached image files are linked from pages, so they stay public
		app.Use(auth.New(auth.Config{ApiKey: c.cfg.Server.ApiKey, Skip: []string{images.FilesPrefix}}))

		if err := mgr.LoadAll(app); err != nil {
			return fmt.Errorf("failed to load features: %w", err)
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("port", c.cfg.Server.Port))
			errCh <- app.Listen(c.cfg.Server.Addr())
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return fmt.Errorf("server failed to start: %w", err)
		case <-quit:
		}

		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
