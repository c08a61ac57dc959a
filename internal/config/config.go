// Package config loads the application configuration from a YAML file,
// layering the file's values over programmatic defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Cache backends recognized by the cache section.
const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

type Config struct {
	Env        string `yaml:"env"`
	BaseURL    string `yaml:"base_url"`
	ShortCode  `yaml:"short_code"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	Cache      `yaml:"cache"`
	Clicks     `yaml:"clicks"`
}

// ShortCode controls code generation.
type ShortCode struct {
	Length     int    `yaml:"length"`
	Strategy   string `yaml:"strategy"`
	MaxRetries int    `yaml:"max_retries"`
}

var defaultShortCode = ShortCode{
	Length:     5,
	Strategy:   "random",
	MaxRetries: 5,
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
	CertFile       string        `yaml:"cert_file"`
	KeyFile        string        `yaml:"key_file"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	QueryTimeout:    3 * time.Second,
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type Redis struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

var defaultRedis = Redis{
	Host: "localhost",
	Port: 6379,
}

func (r *Redis) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Cache controls the read-through cache on the redirect path.
type Cache struct {
	Backend    string        `yaml:"backend"`
	TTLSeconds int           `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Timeout    time.Duration `yaml:"timeout"`
}

var defaultCache = Cache{
	Backend:    CacheBackendRedis,
	TTLSeconds: 86400,
	MaxEntries: 10000,
	Timeout:    500 * time.Millisecond,
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Clicks controls asynchronous click accounting.
type Clicks struct {
	Workers    int `yaml:"workers"`
	QueueSize  int `yaml:"queue_size"`
	MaxRetries int `yaml:"max_retries"`
}

var defaultClicks = Clicks{
	Workers:    2,
	QueueSize:  1024,
	MaxRetries: 3,
}

func Load(path string) (*Config, error) {
	const op = "config.Load"

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
	}
	defer f.Close()

	var cfg Config
	setDefaults(&cfg)

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.BaseURL = "http://localhost:8080"
	cfg.ShortCode = defaultShortCode
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
	cfg.Cache = defaultCache
	cfg.Clicks = defaultClicks
}
