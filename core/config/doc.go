// Package config provides configuration management for the guild sync service.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Defaults come from `default` struct tags on each section.
//
// # Configuration Structure
//
// The Config struct is divided into subsections:
//   - Server: admin HTTP port and API key
//   - Database: driver (mysql, postgres, sqlite) and connection details
//   - Storage: optional S3/MinIO snapshot archive
//   - Redis: optional cross-process run lock
//   - Battlenet: upstream credentials, reservoir and spacing limits
//   - Sync: staleness threshold, batch sizes, interval
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.StaleHours)
package config
