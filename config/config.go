package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Port               string        `yaml:"port"`
	DBDriver           string        `yaml:"db_driver"` // sqlite|postgres
	DBPath             string        `yaml:"db_path"`
	DatabaseURL        string        `yaml:"database_url"`
	ArtifactDir        string        `yaml:"artifact_dir"`
	LoadLatestSnapshot bool          `yaml:"load_latest_snapshot"`
	ReconcileEnabled   bool          `yaml:"reconcile_enabled"`
	ReconcileInterval  time.Duration `yaml:"reconcile_interval"`
	ReconcileTimeout   time.Duration `yaml:"reconcile_timeout"` // per tick, 0 = unbounded
	PredictCacheSize   int           `yaml:"predict_cache_size"`
	LogLevel           string        `yaml:"log_level"`
}

func defaults() AppConfig {
	return AppConfig{
		Port:               "8080",
		DBDriver:           "sqlite",
		DBPath:             "yield.db",
		ArtifactDir:        "model",
		LoadLatestSnapshot: true,
		ReconcileEnabled:   true,
		ReconcileInterval:  60 * time.Second,
		ReconcileTimeout:   10 * time.Minute,
		PredictCacheSize:   1024,
		LogLevel:           "info",
	}
}

// Load resolves defaults, then CONFIG_FILE (yaml) if set, then the
// environment (including .env).
func Load() AppConfig {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("[cfg] No .env file found or error loading: %v", err)
	}

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			log.Printf("[cfg] ignoring %s: %v", path, err)
		}
	}
	applyEnv(&cfg, os.LookupEnv)
	log.Printf("[cfg] %+v", cfg)
	return cfg
}

func loadFile(path string, cfg *AppConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, cfg)
}

func applyEnv(cfg *AppConfig, lookup func(string) (string, bool)) {
	get := func(k string, dst *string) {
		if v, ok := lookup(k); ok && v != "" {
			*dst = v
		}
	}
	getBool := func(k string, dst *bool) {
		if v, ok := lookup(k); ok && v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			} else {
				log.Printf("[cfg] %s=%q is not a bool, keeping %v", k, v, *dst)
			}
		}
	}

	get("PORT", &cfg.Port)
	get("DB_DRIVER", &cfg.DBDriver)
	get("DB_PATH", &cfg.DBPath)
	get("DATABASE_URL", &cfg.DatabaseURL)
	get("ARTIFACT_DIR", &cfg.ArtifactDir)
	get("LOG_LEVEL", &cfg.LogLevel)
	getBool("LOAD_LATEST_SNAPSHOT", &cfg.LoadLatestSnapshot)
	getBool("RECONCILE_ENABLED", &cfg.ReconcileEnabled)

	if v, ok := lookup("RECONCILE_INTERVAL"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ReconcileInterval = d
		} else {
			log.Printf("[cfg] RECONCILE_INTERVAL=%q is not a positive duration, keeping %s", v, cfg.ReconcileInterval)
		}
	}
	if v, ok := lookup("RECONCILE_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.ReconcileTimeout = d
		} else {
			log.Printf("[cfg] RECONCILE_TIMEOUT=%q is not a duration, keeping %s", v, cfg.ReconcileTimeout)
		}
	}
	if v, ok := lookup("PREDICT_CACHE_SIZE"); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.PredictCacheSize = n
		}
	}
}
