package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr            string
	LogLevel        string
	LogConsole      bool
	MaxUploadBytes  int64
	ScratchDir      string
	SessionTTL      time.Duration
	SessionSweep    time.Duration
	RenderCacheSize int
}

func FromEnv() Config {
	return Config{
		Addr:            getenv("ADDR", ":8090"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogConsole:      getbool("LOG_CONSOLE", false),
		MaxUploadBytes:  getint64("MAX_UPLOAD_BYTES", 64<<20),
		ScratchDir:      getenv("SCRATCH_DIR", os.TempDir()),
		SessionTTL:      getduration("SESSION_TTL", 30*time.Minute),
		SessionSweep:    getduration("SESSION_SWEEP", time.Minute),
		RenderCacheSize: getint("RENDER_CACHE_SIZE", 8),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
