package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Weather  WeatherConfig
	Paths    PathsConfig
	Actual   ActualConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// WeatherConfig holds KMA weather API configuration.
// ServiceKey may be empty at startup; a call that needs it fails instead,
// so fully cached or historical-only operation keeps working without a key.
type WeatherConfig struct {
	ServiceKey string
	BaseURL    string
	StationURL string
	StationID  int
	Timeout    time.Duration
	CacheFile  string
}

// PathsConfig holds locations of bundled startup artifacts
type PathsConfig struct {
	ModelsDir     string
	LocationsFile string
}

// ActualConfig bounds the date window for which ground-truth sales rows exist
type ActualConfig struct {
	StartYMD string
	EndYMD   string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// LoadConfig reads configuration from environment variables, consulting a
// .env file first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "sales_user"),
			Password:        getEnv("DB_PASSWORD", "sales_pass"),
			Database:        getEnv("DB_NAME", "sales_db"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
		},
		Weather: WeatherConfig{
			ServiceKey: getEnv("KMA_SERVICE_KEY", ""),
			BaseURL:    getEnv("KMA_BASE_URL", "http://apis.data.go.kr/1360000/VilageFcstInfoService_2.0"),
			StationURL: getEnv("KMA_ASOS_URL", "http://apis.data.go.kr/1360000/AsosDalyInfoService/getWthrDataList"),
			StationID:  getEnvAsInt("KMA_STATION_ID", 119),
			Timeout:    getEnvAsDuration("WEATHER_TIMEOUT", 20*time.Second),
			CacheFile:  getEnv("WEATHER_CACHE_FILE", "./data/weather_cache.json"),
		},
		Paths: PathsConfig{
			ModelsDir:     getEnv("MODELS_DIR", "./models"),
			LocationsFile: getEnv("LOCATIONS_FILE", "./data/suwon_locations.json"),
		},
		Actual: ActualConfig{
			StartYMD: getEnv("ACTUAL_START_YMD", "20220101"),
			EndYMD:   getEnv("ACTUAL_END_YMD", "20251031"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Validate checks configuration consistency before serving
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" || c.Database.Database == "" {
		return fmt.Errorf("database host and name are required")
	}

	if err := validateYMD(c.Actual.StartYMD); err != nil {
		return fmt.Errorf("invalid ACTUAL_START_YMD: %w", err)
	}
	if err := validateYMD(c.Actual.EndYMD); err != nil {
		return fmt.Errorf("invalid ACTUAL_END_YMD: %w", err)
	}
	if strings.Compare(c.Actual.StartYMD, c.Actual.EndYMD) > 0 {
		return fmt.Errorf("actual data window start %s is after end %s", c.Actual.StartYMD, c.Actual.EndYMD)
	}

	if c.Weather.Timeout <= 0 {
		return fmt.Errorf("weather timeout must be positive")
	}

	return nil
}

func validateYMD(s string) error {
	if _, err := time.Parse("20060102", s); err != nil {
		return fmt.Errorf("expected YYYYMMDD, got %q", s)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
