// Package logger builds the zap logger shared by every component.
//
// Level "debug" selects zap's development config, anything else the
// production config at that level. Format "console" switches to the colored
// console encoder; the default is JSON.
//
// Components accept a *zap.Logger and fall back to a no-op logger through
// OrNop. HTTP handlers derive a request logger with WithRayID so every line
// of one request carries the same ray_id.
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Image cache ready", zap.String("dir", dir))
//
//	l := logger.WithRayID(log, c)
//	l.Warn("Catalog lookup failed", zap.Error(err))
package logger
