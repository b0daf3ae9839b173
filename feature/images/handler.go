package images

import (
	"path/filepath"

	"brick-manager/core/imagecache"
	"brick-manager/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler exposes the image cache over HTTP.
type Handler struct {
	cache  *imagecache.Cache
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler.
func NewHandler(cache *imagecache.Cache, l *zap.Logger) *Handler {
	return &Handler{cache: cache, logger: logger.OrNop(l)}
}

// RegisterRoutes registers the image routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/images")
	group.Get("/resolve", h.HandleResolve)
	group.Get("/stats", h.HandleStats)
	group.Delete("/failed", h.HandleInvalidateFailed)
	group.Get("/files/:name", h.HandleGetImage)
}

// FilesPrefix is the public path cached files are served under.
const FilesPrefix = "/images/files/"

// ResolveResponse describes where a remote image is served from.
type ResolveResponse struct {
	Source      string `json:"source"`
	LocalPath   string `json:"local_path"`
	URL         string `json:"url"`
	Placeholder bool   `json:"placeholder"`
}

// HandleResolve resolves a remote image URL through the cache.
// @Summary Resolve Image
// @Description Downloads the image on first use and returns where it is served from. Failed downloads resolve to the placeholder.
// @Tags images
// @Produce json
// @Param url query string true "Remote image URL"
// @Success 200 {object} ResolveResponse "Resolved Image"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /images/resolve [get]
func (h *Handler) HandleResolve(c *fiber.Ctx) error {
	src := c.Query("url")
	if src == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url is required"})
	}

	local := h.cache.Resolve(c.Context(), src)
	resp := ResolveResponse{Source: src, LocalPath: local}
	if local == h.cache.Placeholder() {
		resp.Placeholder = true
		resp.URL = "/" + filepath.ToSlash(local)
	} else {
		resp.URL = FilesPrefix + filepath.Base(local)
	}

	if resp.Placeholder {
		logger.WithRayID(h.logger, c).Debug("Image resolved to placeholder", zap.String("url", src))
	}
	return c.JSON(resp)
}

// HandleGetImage serves a cached image file.
// @Summary Get Cached Image
// @Description Serves a file previously downloaded into the image cache.
// @Tags images
// @Produce octet-stream
// @Param name path string true "Cache file name"
// @Success 200 {file} file "Image"
// @Failure 404 {object} map[string]string "Not Found"
// @Router /images/files/{name} [get]
func (h *Handler) HandleGetImage(c *fiber.Ctx) error {
	path, ok := h.cache.File(c.Params("name"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "image not found"})
	}
	c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
	return c.SendFile(path)
}

// HandleStats returns the number of cache entries per state.
// @Summary Image Cache Stats
// @Tags images
// @Produce json
// @Success 200 {object} imagecache.Stats "Stats"
// @Router /images/stats [get]
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	return c.JSON(h.cache.Stats())
}

// HandleInvalidateFailed makes failed images retryable.
// @Summary Retry Failed Images
// @Description Drops every failed cache entry so the next request downloads it again.
// @Tags images
// @Produce json
// @Success 200 {object} map[string]int "Dropped entries"
// @Router /images/failed [delete]
func (h *Handler) HandleInvalidateFailed(c *fiber.Ctx) error {
	n := h.cache.InvalidateFailed()
	logger.WithRayID(h.logger, c).Info("Dropped failed image entries", zap.Int("count", n))
	return c.JSON(fiber.Map{"dropped": n})
}
