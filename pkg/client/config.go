package client

import (
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultBaseURL is used when Config.BaseURL is empty.
const DefaultBaseURL = "https://api.objective-ai.io"

// Config holds client configuration. Zero fields fall back to defaults in New.
type Config struct {
	BaseURL     string            // API root, e.g. "https://api.objective-ai.io"
	APIKey      string            // Sent as a bearer token when set
	UserAgent   string            // User-Agent header
	XTitle      string            // X-Title header, names the calling application
	HTTPReferer string            // HTTP-Referer header, the calling application's URL
	Headers     map[string]string // Additional HTTP headers
	HTTPClient  *http.Client      // Custom HTTP client (for timeouts, TLS, proxies)
	Logger      logrus.FieldLogger
}

// ConfigFromEnv reads the CHUNKFOLD_API_KEY, CHUNKFOLD_API_BASE, USER_AGENT,
// X_TITLE and HTTP_REFERER environment variables.
func ConfigFromEnv() Config {
	return Config{
		BaseURL:     os.Getenv("CHUNKFOLD_API_BASE"),
		APIKey:      os.Getenv("CHUNKFOLD_API_KEY"),
		UserAgent:   os.Getenv("USER_AGENT"),
		XTitle:      os.Getenv("X_TITLE"),
		HTTPReferer: os.Getenv("HTTP_REFERER"),
	}
}
