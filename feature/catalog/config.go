package catalog

// Config holds catalog lookup settings.
type Config struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds" default:"300"`
	BatchSize       int `mapstructure:"batch_size" default:"500"`
}
