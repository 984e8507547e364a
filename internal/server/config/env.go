package config

import "os"

// parseEnv overlays values from the process environment. Only non-empty
// variables are applied.
//
//	SECRET_KEY    JWT HMAC secret key
//	DATABASE_DSN  PostgreSQL DSN
//	REDIS_ADDR    Redis address or redis:// URL for the login throttle
//	LOG_LEVEL     debug | info | warn | error
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("SECRET_KEY"); ok && v != "" {
		config.SecretKey = v
	}
	if v, ok := os.LookupEnv("DATABASE_DSN"); ok && v != "" {
		config.DatabaseDSN = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDR"); ok && v != "" {
		config.RedisAddr = v
	}
	if v, ok := os.LookupEnv("LOG_LEVEL"); ok && v != "" {
		config.LogLevel = v
	}
}
