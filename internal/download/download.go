// Package download fetches remote files, keeping recent bodies in memory.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"statement-importer/pkg/errors"
	"statement-importer/pkg/logger"
)

// Config holds downloader settings
type Config struct {
	Timeout      time.Duration `json:"timeout"`
	CacheTTL     time.Duration `json:"cache_ttl"`
	MaxBodyBytes int64         `json:"max_body_bytes"`
	UserAgent    string        `json:"user_agent"`
}

// DefaultConfig returns the settings used for the bond rate workbook
func DefaultConfig() *Config {
	return &Config{
		Timeout:      15 * time.Second,
		CacheTTL:     time.Hour,
		MaxBodyBytes: 32 << 20,
		UserAgent:    "statement-importer",
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache ttl cannot be negative, got %v", c.CacheTTL)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}

// Downloader performs GET requests with a per-call timeout. A zero CacheTTL
// disables caching.
type Downloader struct {
	client *http.Client
	config *Config
	cache  *cache.Cache
	logger logger.Logger
}

// New creates a downloader. A nil client means http.DefaultClient.
func New(client *http.Client, config *Config) (*Downloader, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "download", config, err)
	}
	if client == nil {
		client = http.DefaultClient
	}

	d := &Downloader{
		client: client,
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("downloader"),
	}
	if config.CacheTTL > 0 {
		d.cache = cache.New(config.CacheTTL, 2*config.CacheTTL)
	}
	return d, nil
}

// Fetch returns the body of url, from the cache when a fresh copy is held
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	if d.cache != nil {
		if cached, found := d.cache.Get(url); found {
			d.logger.WithField("url", url).Debug("Serving download from cache")
			return cached.([]byte), nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NetworkError(errors.CodeConnectionFailed, url, err)
	}
	req.Header.Set("User-Agent", d.config.UserAgent)

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NetworkError(errors.CodeTimeout, url, err).
				WithContext("timeout", d.config.Timeout.String())
		}
		return nil, errors.NetworkError(errors.CodeConnectionFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NetworkError(errors.CodeServiceUnavailable, url,
			fmt.Errorf("unexpected status %s", resp.Status)).
			WithContext("status", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.config.MaxBodyBytes+1))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NetworkError(errors.CodeTimeout, url, err)
		}
		return nil, errors.NetworkError(errors.CodeConnectionFailed, url, err)
	}
	if int64(len(body)) > d.config.MaxBodyBytes {
		return nil, errors.NetworkError(errors.CodeServiceUnavailable, url,
			fmt.Errorf("response larger than %d bytes", d.config.MaxBodyBytes))
	}

	d.logger.WithFields(logger.Fields{
		"url":      url,
		"bytes":    len(body),
		"duration": time.Since(start),
	}).Info("Downloaded file")

	if d.cache != nil {
		d.cache.SetDefault(url, body)
	}
	return body, nil
}

// Forget drops the cached copy of url
func (d *Downloader) Forget(url string) {
	if d.cache != nil {
		d.cache.Delete(url)
	}
}
