package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the tracker services
type Config struct {
	// Database
	DatabasePath string

	// Optional Postgres export target (empty disables export)
	PostgresURL string

	// Real-time collection
	VehiclePositionsURL string
	PollInterval        time.Duration
	PingRetention       time.Duration

	// Static schedule
	GTFSZipPath string

	// Processing
	ProcessInterval time.Duration
	Timezone        *time.Location

	// HTTP
	APIPort     string
	MetricsAddr string

	// Engine thresholds
	Options Options
}

// Options carries the tunable thresholds of the OTP engine. It is passed
// explicitly into each component at construction; there is no package-level
// mutable configuration.
type Options struct {
	ArrivalThresholdMeters float64
	DelayGraceMinutes      float64
	OutlierUpperMinutes    float64
	OutlierLowerMinutes    float64
	MorningStart           time.Duration // offset from local midnight
	MorningEnd             time.Duration
	EveningStart           time.Duration
	EveningEnd             time.Duration
}

// DefaultOptions returns the historically calibrated engine thresholds.
// The outlier clamps (500 / -100 minutes) and the 4-minute grace window are
// empirical values carried over from the recorded Caltrain data; changing
// them changes the meaning of every published statistic.
func DefaultOptions() Options {
	return Options{
		ArrivalThresholdMeters: 500,
		DelayGraceMinutes:      4,
		OutlierUpperMinutes:    500,
		OutlierLowerMinutes:    -100,
		MorningStart:           6 * time.Hour,
		MorningEnd:             9 * time.Hour,
		EveningStart:           15*time.Hour + 30*time.Minute,
		EveningEnd:             19*time.Hour + 30*time.Minute,
	}
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first if present.
func Load() *Config {
	_ = godotenv.Load()

	tzName := getEnv("TIMEZONE", "America/Los_Angeles")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		log.Printf("Warning: unknown timezone %q, falling back to UTC", tzName)
		tz = time.UTC
	}

	opts := DefaultOptions()
	opts.ArrivalThresholdMeters = getEnvFloat("ARRIVAL_THRESHOLD_METERS", opts.ArrivalThresholdMeters)

	return &Config{
		DatabasePath: getEnv("SQLITE_DATABASE", "data/caltrain.db"),
		PostgresURL:  getEnv("DATABASE_URL", ""),

		VehiclePositionsURL: getEnv("GTFS_VEHICLE_POSITIONS_URL", "https://api.511.org/transit/vehiclepositions?agency=CT"),
		PollInterval:        time.Duration(getEnvInt("POLL_INTERVAL", 60)) * time.Second,
		PingRetention:       time.Duration(getEnvInt("PING_RETENTION_DAYS", 90)) * 24 * time.Hour,

		GTFSZipPath: getEnv("GTFS_ZIP_PATH", "gtfs_data/gtfs.zip"),

		ProcessInterval: time.Duration(getEnvInt("PROCESS_INTERVAL", 3600)) * time.Second,
		Timezone:        tz,

		APIPort:     getEnv("API_PORT", "8000"),
		MetricsAddr: getEnv("METRICS_ADDR", ""),

		Options: opts,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
