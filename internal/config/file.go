package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig содержит параметры клиента из TOML-файла. Имеют наименьший приоритет:
// их переопределяют флаги и переменные окружения.
type FileConfig struct {
	APIURL       string   `toml:"api_url"`
	UseLocalAPI  *bool    `toml:"use_local_api"`
	FallbackURLs []string `toml:"fallback_urls"`
	DevHostURI   string   `toml:"dev_host_uri"`
	Platform     string   `toml:"platform"`
	Debug        *bool    `toml:"debug"`
}

// LoadFile читает TOML-файл конфигурации. Пустой путь или отсутствующий файл дают пустую конфигурацию.
func LoadFile(path string) (FileConfig, error) {
	if strings.TrimSpace(path) == "" {
		return FileConfig{}, nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return FileConfig{}, err
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config: %w", err)
	}

	var fc FileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return FileConfig{}, fmt.Errorf("parse config: %w", err)
	}
	return fc, nil
}

// applyTo заполняет поля, для которых не был передан флаг.
func (fc FileConfig) applyTo(cfg *Config, explicit map[string]bool) {
	if !explicit["a"] && fc.APIURL != "" {
		cfg.APIURL = strings.TrimSpace(fc.APIURL)
	}
	if !explicit["local"] && fc.UseLocalAPI != nil {
		cfg.UseLocalAPI = *fc.UseLocalAPI
	}
	if !explicit["f"] && len(fc.FallbackURLs) > 0 {
		cfg.FallbackURLs = SplitList(strings.Join(fc.FallbackURLs, ","))
	}
	if !explicit["dev-host"] && fc.DevHostURI != "" {
		cfg.DevHostURI = fc.DevHostURI
	}
	if !explicit["platform"] && fc.Platform != "" {
		cfg.Platform = fc.Platform
	}
	if !explicit["debug"] && fc.Debug != nil {
		cfg.Debug = *fc.Debug
	}
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
