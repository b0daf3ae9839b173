// Package config provides configuration management for brick-manager.
//
// It uses Viper to read environment variables, with an optional .env file
// loaded through godotenv. Defaults come from the `default` struct tags of
// each section, keys from the `mapstructure` tags; nested keys map to
// upper-case env vars joined by underscores (images.dir -> IMAGES_DIR).
//
// # Configuration Structure
//
//   - Server: HTTP port, API key and timeouts
//   - Database: collection database (sqlite file or MySQL)
//   - Storage: S3/MinIO credentials and bucket for the image mirror
//   - Log: logging level and format
//   - Images: image cache directory, placeholder, download limits
//   - Catalog: catalog cache TTL and lookup batch size
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Images.Dir)
package config
