// Package config provides configuration for the application
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	TaskServer TaskServerConfig
	Polling    PollingConfig
	Events     EventsConfig
	Panel      PanelConfig
	Database   DatabaseConfig
	Logging    LoggingConfig
	CORS       CORSConfig
}

// TaskServerConfig holds settings of the remote task server
type TaskServerConfig struct {
	BaseURL        string
	EventsPath     string
	RequestTimeout time.Duration
}

// PollingConfig holds status polling settings
type PollingConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// EventsConfig holds progress event feed settings
type EventsConfig struct {
	LogCapacity int
}

// PanelConfig holds settings of the local panel API
type PanelConfig struct {
	Port int
}

// DatabaseConfig holds database connection settings.
// History is disabled when Host is empty.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{}

	// Task server configuration
	serverURL := os.Getenv("TASK_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://127.0.0.1:5000" // default Flask address
	}
	parsed, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid TASK_SERVER_URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid TASK_SERVER_URL: unsupported scheme %q", parsed.Scheme)
	}
	cfg.TaskServer.BaseURL = strings.TrimRight(serverURL, "/")

	eventsPath := os.Getenv("TASK_EVENTS_PATH")
	if eventsPath == "" {
		eventsPath = "/socket.io/"
	}
	if !strings.HasPrefix(eventsPath, "/") {
		eventsPath = "/" + eventsPath
	}
	cfg.TaskServer.EventsPath = eventsPath

	cfg.TaskServer.RequestTimeout, err = durationEnv("TASK_REQUEST_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	// Polling configuration
	cfg.Polling.Interval, err = durationEnv("POLL_INTERVAL", 1500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	cfg.Polling.Timeout, err = durationEnv("TASK_TIMEOUT", 300*time.Second)
	if err != nil {
		return nil, err
	}
	if cfg.Polling.Timeout < cfg.Polling.Interval {
		return nil, fmt.Errorf("TASK_TIMEOUT must not be shorter than POLL_INTERVAL")
	}

	// Event log configuration
	capacityStr := os.Getenv("EVENT_LOG_CAPACITY")
	if capacityStr == "" {
		capacityStr = "200" // same cap as the server keeps
	}
	capacity, err := strconv.Atoi(capacityStr)
	if err != nil {
		return nil, fmt.Errorf("invalid EVENT_LOG_CAPACITY: %w", err)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("EVENT_LOG_CAPACITY must be positive")
	}
	cfg.Events.LogCapacity = capacity

	// Panel configuration
	panelPortStr := os.Getenv("PANEL_PORT")
	if panelPortStr == "" {
		panelPortStr = "8090" // default port
	}
	panelPort, err := strconv.Atoi(panelPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PANEL_PORT: %w", err)
	}
	cfg.Panel.Port = panelPort

	// Database configuration, only required when DB_HOST is set
	cfg.Database.Host = os.Getenv("DB_HOST")
	if cfg.Database.Host != "" {
		dbPortStr := os.Getenv("DB_PORT")
		if dbPortStr == "" {
			dbPortStr = "3306"
		}
		dbPort, err := strconv.Atoi(dbPortStr)
		if err != nil {
			return nil, fmt.Errorf("invalid DB_PORT: %w", err)
		}
		cfg.Database.Port = dbPort

		cfg.Database.User = os.Getenv("DB_USER")
		if cfg.Database.User == "" {
			return nil, fmt.Errorf("DB_USER is required")
		}
		cfg.Database.Password = os.Getenv("DB_PASSWORD")

		cfg.Database.DBName = os.Getenv("DB_NAME")
		if cfg.Database.DBName == "" {
			return nil, fmt.Errorf("DB_NAME is required")
		}
	}

	// Logging configuration
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info" // default level
	}
	cfg.Logging.Level = logLevel

	// CORS configuration
	corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	if corsOrigins == "" {
		cfg.CORS.AllowedOrigins = []string{"*"}
	} else {
		origins := strings.Split(corsOrigins, ",")
		cfg.CORS.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.CORS.AllowedOrigins = append(cfg.CORS.AllowedOrigins, origin)
			}
		}
		if len(cfg.CORS.AllowedOrigins) == 0 {
			cfg.CORS.AllowedOrigins = []string{"*"}
		}
	}

	return cfg, nil
}

// HistoryEnabled reports whether a database is configured for task history
func (c *Config) HistoryEnabled() bool {
	return c.Database.Host != ""
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
	)
}

// socketIOQuery selects the Engine.IO v4 websocket transport
const socketIOQuery = "EIO=4&transport=websocket"

// EventsURL returns the websocket address of the progress feed.
// A path under /socket.io gets the Engine.IO handshake query, any other path is dialled as is.
func (c *Config) EventsURL() string {
	base := c.TaskServer.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	if strings.HasPrefix(c.TaskServer.EventsPath, "/socket.io") && !strings.Contains(c.TaskServer.EventsPath, "?") {
		return base + c.TaskServer.EventsPath + "?" + socketIOQuery
	}
	return base + c.TaskServer.EventsPath
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
