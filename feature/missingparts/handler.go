package missingparts

import (
	"brick-manager/core/logger"
	"brick-manager/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for missing parts.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the missing parts routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/missing-parts")
	group.Get("/", h.HandleGetMissingParts)
	group.Get("/summary", h.HandleGetSummary)
}

// HandleGetMissingParts returns missing parts grouped by category.
// @Summary Get Missing Parts
// @Description Lists every part and minifigure part with a shortfall, flat and grouped by category.
// @Tags missing-parts
// @Produce json
// @Param ids query string false "User set id filter (e.g. '200-210;229')"
// @Param spares query bool false "Include spare parts (default true)"
// @Param category query int false "Only this category id"
// @Param exclude_status query string false "Comma separated user set statuses to skip"
// @Success 200 {object} models.Result "Missing Parts"
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /missing-parts [get]
func (h *Handler) HandleGetMissingParts(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	category, err := utils.ToOptionalInt(c.Query("category"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "category: " + err.Error(),
		})
	}

	result, err := h.service.missingParts(c.Context(), l, Query{
		IDs:             c.Query("ids"),
		IncludeSpares:   utils.ToBool(c.Query("spares"), true),
		Category:        category,
		ExcludeStatuses: utils.SplitList(c.Query("exclude_status")),
	})
	if err != nil {
		l.Error("Missing parts aggregation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(result)
}

// HandleGetSummary returns collection totals.
// @Summary Get Collection Summary
// @Description Totals of owned and missing parts. Assembled and konvolut sets are skipped unless exclude_status is given.
// @Tags missing-parts
// @Produce json
// @Param ids query string false "User set id filter (e.g. '200-210;229')"
// @Param exclude_status query string false "Comma separated user set statuses to skip"
// @Success 200 {object} models.Summary "Summary"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /missing-parts/summary [get]
func (h *Handler) HandleGetSummary(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	exclude := DefaultExcludedStatuses
	if raw, ok := c.Queries()["exclude_status"]; ok {
		exclude = utils.SplitList(raw)
	}

	summary, err := h.service.summary(c.Context(), l, Query{
		IDs:             c.Query("ids"),
		ExcludeStatuses: exclude,
	})
	if err != nil {
		l.Error("Summary failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(summary)
}
