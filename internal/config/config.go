// Package config содержит логику чтения конфигурации клиента витрины и локального бэкенда.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры подключения клиента к API витрины.
type Config struct {
	APIURL       string   `env:"API_URL"`
	UseLocalAPI  bool     `env:"USE_LOCAL_API"`
	FallbackURLs []string `env:"API_FALLBACK_URLS" envSeparator:","`
	DevHostURI   string   `env:"DEV_HOST_URI"`
	Platform     string   `env:"PLATFORM"`
	Debug        bool     `env:"DEBUG"`
	ConfigFile   string   `env:"STOREFRONT_CONFIG"`
}

// Parse считывает конфигурацию клиента из файла, флагов командной строки и переменных окружения.
// Значения из окружения имеют приоритет над флагами, флаги над файлом.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	var fallbacks string
	flag.StringVar(&cfg.APIURL, "a", "", "API base URL override")
	flag.BoolVar(&cfg.UseLocalAPI, "local", false, "use the local backend instead of the remote one")
	flag.StringVar(&fallbacks, "f", "", "comma-separated fallback API base URLs")
	flag.StringVar(&cfg.DevHostURI, "dev-host", "", "address of the development host connection")
	flag.StringVar(&cfg.Platform, "platform", "", "client platform (android selects the emulator loopback)")
	flag.BoolVar(&cfg.Debug, "debug", false, "enable debug logging")
	flag.StringVar(&cfg.ConfigFile, "config", "", "path to a TOML configuration file")

	flag.Parse()

	cfg.FallbackURLs = SplitList(fallbacks)

	if envCfg.ConfigFile != "" {
		cfg.ConfigFile = envCfg.ConfigFile
	}

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	fc, err := LoadFile(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	fc.applyTo(cfg, explicit)

	if envCfg.APIURL != "" {
		cfg.APIURL = envCfg.APIURL
	}
	if envSet("USE_LOCAL_API") {
		cfg.UseLocalAPI = envCfg.UseLocalAPI
	}
	if len(envCfg.FallbackURLs) > 0 {
		cfg.FallbackURLs = SplitList(strings.Join(envCfg.FallbackURLs, ","))
	}
	if envCfg.DevHostURI != "" {
		cfg.DevHostURI = envCfg.DevHostURI
	}
	if envCfg.Platform != "" {
		cfg.Platform = envCfg.Platform
	}
	if envSet("DEBUG") {
		cfg.Debug = envCfg.Debug
	}

	return cfg, nil
}

// ServerConfig содержит параметры локального бэкенда для разработки.
type ServerConfig struct {
	RunAddress  string        `env:"RUN_ADDRESS"`
	TokenSecret string        `env:"TOKEN_SECRET"`
	Warmup      time.Duration `env:"WARMUP"`
	Latency     time.Duration `env:"LATENCY"`
}

// ParseServer считывает конфигурацию локального бэкенда из флагов и переменных окружения.
func ParseServer() (*ServerConfig, error) {
	cfg := &ServerConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	flag.StringVar(&cfg.RunAddress, "a", "localhost:4000", "address and port for HTTP server")
	flag.StringVar(&cfg.TokenSecret, "s", "", "secret used to sign bearer tokens")
	flag.DurationVar(&cfg.Warmup, "w", 0, "period after start during which the datastore reports not connected")
	flag.DurationVar(&cfg.Latency, "l", 0, "artificial latency added to every response")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.TokenSecret != "" {
		cfg.TokenSecret = envCfg.TokenSecret
	}
	if envCfg.Warmup != 0 {
		cfg.Warmup = envCfg.Warmup
	}
	if envCfg.Latency != 0 {
		cfg.Latency = envCfg.Latency
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:4000"
	}

	return cfg, nil
}

// envSet сообщает, задана ли переменная окружения непустым значением, в том числе false.
func envSet(key string) bool {
	v, ok := os.LookupEnv(key)
	return ok && v != ""
}

// SplitList разбивает список через запятую, отбрасывая пустые элементы.
func SplitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
