package storage

// Config holds the S3/MinIO connection used by the image mirror.
// It is only read when images.mirror is enabled.
type Config struct {
	// Endpoint is host[:port]; an http:// or https:// prefix is stripped.
	Endpoint  string `mapstructure:"endpoint" default:"localhost:9000"`
	AccessKey string `mapstructure:"access_key" default:"minioadmin"`
	SecretKey string `mapstructure:"secret_key" default:"minioadmin"`
	UseSSL    bool   `mapstructure:"use_ssl" default:"false"`
	// Bucket holds mirrored reference images.
	Bucket string `mapstructure:"bucket" default:"brick-images"`
	Region string `mapstructure:"region" default:""`
	// TimeoutSeconds bounds dialing, TLS handshakes and response headers.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
