package images

import (
	"brick-manager/core/imagecache"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	handler *Handler
}

// NewFeature creates a new images feature.
func NewFeature(cache *imagecache.Cache, logger *zap.Logger) *Feature {
	return &Feature{handler: NewHandler(cache, logger)}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "images"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return f.handler.cache != nil
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
