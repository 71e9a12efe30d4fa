// Package config provides configuration loading for streamkit
// tunables.
//
// It uses Viper to load settings from an optional YAML file, a .env
// file, and environment variables with the STREAMKIT_ prefix
// (e.g. STREAMKIT_PREFETCH, STREAMKIT_STRICT_RESOURCE_SUPPLY).
//
// # Usage
//
//	settings, err := config.Load()
//	config.SetDefaults(settings)
package config
