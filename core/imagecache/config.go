package imagecache

// Config holds configuration for the local image cache.
type Config struct {
	// Dir is the directory cached images are written to.
	Dir string `mapstructure:"dir" default:"data/cache/images"`
	// Placeholder is the path returned when an image cannot be resolved.
	Placeholder string `mapstructure:"placeholder" default:"static/default_image.png"`
	// TimeoutSeconds bounds a single download, retries included.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
	// Retries is the number of retries after a failed download attempt.
	Retries int `mapstructure:"retries" default:"2"`
	// MaxBytes is the largest image accepted.
	MaxBytes int64 `mapstructure:"max_bytes" default:"10485760"`
	// Workers bounds concurrent resolutions when a page resolves many images.
	Workers int `mapstructure:"workers" default:"8"`
	// Mirror enables the object storage second tier.
	Mirror bool `mapstructure:"mirror" default:"false"`
	// MirrorPrefix is the object key prefix used in the mirror bucket.
	MirrorPrefix string `mapstructure:"mirror_prefix" default:"images/"`
}
