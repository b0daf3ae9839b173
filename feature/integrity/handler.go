package integrity

import (
	"errors"

	"brick-manager/core/logger"
	"brick-manager/core/reconcile"
	"brick-manager/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for integrity checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the integrity routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/integrity")
	group.Get("/", h.HandleIntegrityCheck)
	group.Get("/cache", h.HandleCacheCheck)
	group.Get("/mirror", h.HandleMirrorCheck)
	group.Get("/mirror/sync", h.HandleMirrorSync)
	group.Get("/schema", h.HandleSchemaCheck)
}

// HandleIntegrityCheck triggers all integrity checks.
// @Summary Run All Integrity Checks
// @Description Performs all available integrity checks (Cache, Mirror, Schema).
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Combined Report"
// @Router /integrity [get]
func (h *Handler) HandleIntegrityCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Triggering all integrity checks")

	return c.JSON(h.service.CheckAll(c.Context()))
}

// HandleCacheCheck checks and optionally fixes the image cache directory.
// @Summary Check Image Cache
// @Description Checks that the image cache directory exists and is writable and that the placeholder image is present. Optionally creates the directory.
// @Tags integrity
// @Accept json
// @Produce json
// @Param fix query boolean false "Create missing cache directory"
// @Success 200 {object} checks.CacheReport "Cache Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/cache [get]
func (h *Handler) HandleCacheCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report := h.service.CheckCache()
	if !report.Exists && utils.ToBool(c.Query("fix"), false) {
		l.Info("Attempting to create cache directory", zap.String("dir", report.Dir))
		if err := h.service.FixCache(); err != nil {
			l.Error("Failed to create cache directory", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   "Failed to fix cache",
				"details": err.Error(),
			})
		}
		report = h.service.CheckCache()
	}

	if report.Status != "ok" {
		l.Warn("Image cache check failed", zap.String("error", report.Error))
	}
	return c.JSON(report)
}

// HandleMirrorCheck checks and optionally fixes the image mirror bucket.
// @Summary Check Image Mirror
// @Description Checks that the object storage bucket used as image mirror exists. Optionally creates it.
// @Tags integrity
// @Accept json
// @Produce json
// @Param fix query boolean false "Create missing bucket"
// @Success 200 {object} checks.MirrorReport "Mirror Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/mirror [get]
func (h *Handler) HandleMirrorCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	report, err := h.service.CheckMirror(c.Context())
	if err != nil {
		l.Error("Mirror check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if report.Enabled && !report.BucketExists {
		l.Warn("Mirror bucket missing", zap.String("bucket", report.Bucket))

		if utils.ToBool(c.Query("fix"), false) {
			if err := h.service.FixMirror(c.Context()); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error":   "Failed to fix mirror",
					"details": err.Error(),
				})
			}
			return c.JSON(fiber.Map{
				"status": "fixed",
				"bucket": report.Bucket,
			})
		}
	}

	return c.JSON(report)
}

// HandleMirrorSync compares the local image cache with the mirror bucket.
// @Summary Sync Image Mirror
// @Description Plans uploads, restores or purges between the cache directory and the mirror bucket. Mutations only run with apply=true and confirm=true.
// @Tags integrity
// @Accept json
// @Produce json
// @Param sync query boolean false "Plan uploads and restores"
// @Param purge query boolean false "Plan deletion of one-sided images"
// @Param apply query boolean false "Execute the plan"
// @Param confirm query boolean false "Confirm mutations"
// @Success 200 {object} map[string]interface{} "Plan and executed count"
// @Failure 409 {object} map[string]string "Mirror disabled"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/mirror/sync [get]
func (h *Handler) HandleMirrorSync(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	opts := reconcile.Options{
		DoSync:    utils.ToBool(c.Query("sync"), false),
		DoPurge:   utils.ToBool(c.Query("purge"), false),
		DryRun:    !utils.ToBool(c.Query("apply"), false),
		Confirmed: utils.ToBool(c.Query("confirm"), false),
	}

	plan, executed, err := h.service.SyncMirror(c.Context(), opts)
	if errors.Is(err, ErrMirrorDisabled) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("Mirror sync failed", zap.Error(err), zap.Int("executed", executed))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":    err.Error(),
			"executed": executed,
		})
	}

	return c.JSON(fiber.Map{
		"plan":     plan,
		"executed": executed,
		"dry_run":  opts.DryRun || !opts.Confirmed,
	})
}

// HandleSchemaCheck checks the collection schema.
// @Summary Check Collection Schema
// @Description Checks that the collection tables have every column the missing parts view reads.
// @Tags integrity
// @Accept json
// @Produce json
// @Success 200 {object} checks.SchemaReport "Schema Report"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /integrity/schema [get]
func (h *Handler) HandleSchemaCheck(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)
	l.Info("Starting schema check")

	report, err := h.service.CheckSchema()
	if err != nil {
		l.Error("Schema check failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(report)
}
