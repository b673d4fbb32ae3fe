package api

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/mmeshcher/storefront/internal/config"
)

const (
	// DefaultRemoteURL используется, когда не задан ни адрес, ни локальный режим.
	DefaultRemoteURL = "http://tesudeix.com/api"
	// DefaultRemoteFallback задаёт прямой адрес того же бэкенда в обход прокси.
	DefaultRemoteFallback = "http://152.42.205.184/api"

	localBackendPort   = "4000"
	localFallbackURL   = "http://127.0.0.1:" + localBackendPort
	androidEmulatorURL = "http://10.0.2.2:" + localBackendPort
	apiRootSegment     = "/api"
)

var (
	schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z\d+.-]*://`)
	apiSuffix     = regexp.MustCompile(`/api(?:-proxy)?$`)
)

// Candidates строит упорядоченный список базовых адресов для запросов.
// Список вычисляется один раз при старте и не меняется запросами.
func Candidates(cfg config.Config) []string {
	primary := NormalizeURL(cfg.APIURL)
	if !IsValidHTTPURL(primary) {
		primary = NormalizeURL(DefaultURL(cfg))
	}

	hosts := []string{primary}
	seen := map[string]bool{primary: true}

	fallbacks := make([]string, 0, len(cfg.FallbackURLs)+2)
	fallbacks = append(fallbacks, cfg.FallbackURLs...)
	fallbacks = append(fallbacks, DefaultRemoteFallback, DefaultRemoteURL)

	for _, item := range fallbacks {
		item = NormalizeURL(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		hosts = append(hosts, item)
	}

	return hosts
}

// DefaultURL возвращает адрес API по умолчанию для текущего окружения.
func DefaultURL(cfg config.Config) string {
	if !cfg.UseLocalAPI {
		return DefaultRemoteURL
	}
	if host := DevHost(cfg.DevHostURI); host != "" {
		return "http://" + host + ":" + localBackendPort
	}
	if strings.EqualFold(cfg.Platform, "android") {
		return androidEmulatorURL
	}
	return localFallbackURL
}

// DevHost извлекает имя хоста из адреса отладочного соединения, отбрасывая схему и порт.
func DevHost(uri string) string {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return ""
	}
	withoutScheme := schemePattern.ReplaceAllString(uri, "")
	if i := strings.IndexAny(withoutScheme, "/?#"); i >= 0 {
		withoutScheme = withoutScheme[:i]
	}
	host, _, _ := strings.Cut(withoutScheme, ":")
	return host
}

// NormalizeURL приводит адрес к виду scheme://host[/path] без завершающих слэшей.
func NormalizeURL(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	switch {
	case strings.HasPrefix(trimmed, "//"):
		trimmed = "http:" + trimmed
	case !schemePattern.MatchString(trimmed):
		trimmed = "http://" + strings.TrimLeft(trimmed, "/")
	}

	return strings.TrimRight(trimmed, "/")
}

// IsValidHTTPURL проверяет, что адрес имеет схему http или https и непустой хост.
func IsValidHTTPURL(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// JoinPath соединяет базовый адрес и путь запроса, не допуская удвоения сегмента /api.
func JoinPath(base, path string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if strings.HasSuffix(base, apiRootSegment) && strings.HasPrefix(path, apiRootSegment+"/") {
		path = strings.TrimPrefix(path, apiRootSegment)
	}
	return base + path
}

// ImageURL строит адрес статического файла изображения товара.
func ImageURL(base, name string) string {
	if name == "" {
		return ""
	}
	host := apiSuffix.ReplaceAllString(strings.TrimRight(base, "/"), "")
	return host + "/files/" + escapeComponent(name)
}

// componentUnescaper возвращает символы, которые QueryEscape кодирует, а компонент URI оставляет как есть.
var componentUnescaper = strings.NewReplacer("+", "%20", "%21", "!", "%27", "'", "%28", "(", "%29", ")", "%2A", "*")

// escapeComponent кодирует имя файла как компонент URI: разделители &, =, +, :, @ и / экранируются.
func escapeComponent(name string) string {
	return componentUnescaper.Replace(url.QueryEscape(name))
}
