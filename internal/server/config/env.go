package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays environment variables onto config. When envFile is set
// it is loaded first with godotenv; variables already present in the
// process environment take precedence over the file.
func parseEnv(config *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	}

	if v, ok := lookup("AUTH_SECRET", "SECRET_AUTH"); ok {
		config.SecretKey = v
	}
	if v, ok := lookup("AUTH_ALGORITHM"); ok {
		config.SigningAlgorithm = v
	}
	if v, ok := lookup("AUTH_ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("AUTH_ACCESS_TOKEN_EXPIRE_MINUTES: %w", err)
		}
		config.AccessTokenValidityDuration = time.Duration(minutes) * time.Minute
	}
	if v, ok := lookup("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := lookup("HTTP_ADDR"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := lookup("REDIS_URL"); ok {
		config.RedisURL = v
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok {
		config.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		config.CookieSecure = b
	}
	if v, ok := lookup("COOKIE_SAMESITE"); ok {
		config.CookieSameSite = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		config.LogLevel = v
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"BCRYPT_COST", &config.BcryptCost},
		{"LOGIN_RATE_PER_MINUTE", &config.LoginRatePerMinute},
		{"LOGIN_BURST", &config.LoginBurst},
	}
	for _, it := range ints {
		v, ok := lookup(it.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", it.name, err)
		}
		*it.dst = n
	}
	return nil
}

// lookup returns the first non-empty variable among names.
func lookup(names ...string) (string, bool) {
	for _, n := range names {
		if v, ok := os.LookupEnv(n); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
