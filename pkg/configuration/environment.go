package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/govkit/records-sdk/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"records"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type AuditOptions struct {
	BufferSize    int           `env:"AUDIT_BUFFER_SIZE" envDefault:"1024"`
	FlushInterval time.Duration `env:"AUDIT_FLUSH_INTERVAL" envDefault:"2s"`
	FlushBatch    int           `env:"AUDIT_FLUSH_BATCH" envDefault:"100"`
	RetryBackoff  time.Duration `env:"AUDIT_RETRY_BACKOFF" envDefault:"500ms"`
}

func (a *AuditOptions) Validate() error {
	if a.BufferSize <= 0 {
		return fmt.Errorf("audit BufferSize must be positive, got %d", a.BufferSize)
	}
	if a.FlushBatch <= 0 {
		return fmt.Errorf("audit FlushBatch must be positive, got %d", a.FlushBatch)
	}
	if a.FlushInterval <= 0 {
		return fmt.Errorf("audit FlushInterval must be positive, got %s", a.FlushInterval)
	}
	return nil
}

type GraphOptions struct {
	// Name of the AGE graph holding extracted entities.
	GraphName string `env:"GRAPH_NAME" envDefault:"records"`
}

type CacheOptions struct {
	Enabled  bool          `env:"CACHE_ENABLED" envDefault:"false"`
	RedisURL string        `env:"REDIS_URL" envDefault:"localhost:6379"`
	TTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

func (c *CacheOptions) Validate() error {
	if c.Enabled && strings.TrimSpace(c.RedisURL) == "" {
		return fmt.Errorf("cache RedisURL is required when CACHE_ENABLED=true")
	}
	return nil
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type Configuration struct {
	Database   DatabaseOptions
	Audit      AuditOptions
	Graph      GraphOptions
	Cache      CacheOptions
	Prometheus PrometheusOptions

	MigrationsDir    string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	PageSize         int    `env:"PAGE_SIZE" envDefault:"25"`
	MaxPageSize      int    `env:"MAX_PAGE_SIZE" envDefault:"100"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/app.log"`
	// Incoming requests carry the acting tenant in this header.
	TenantIDHeader string `env:"TENANT_ID_HEADER" envDefault:"X-Tenant-ID"`
	// Incoming requests carry the acting subject in this header.
	SubjectIDHeader string `env:"SUBJECT_ID_HEADER" envDefault:"X-Subject-ID"`
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Audit.Validate(); err != nil {
		return fmt.Errorf("audit configuration error: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache configuration error: %w", err)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
