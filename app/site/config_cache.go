package site

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/samber/lo"
	"golang.org/x/text/encoding/htmlindex"
	"gopkg.in/yaml.v3"
)

const (
	PagePlaceholder         = "{page}"
	DefaultImageWidth       = "720px"
	DefaultThumbnailMetaKey = "_thumbnail_url"
)

type ConfigCache struct {
	sitesDir            string
	defaultTimeout      int
	defaultProbeTimeout int
	cache               map[string]*Config
	mu                  sync.RWMutex
}

func NewConfigCache(sitesDir string) *ConfigCache {
	return &ConfigCache{
		sitesDir:            sitesDir,
		defaultTimeout:      10,
		defaultProbeTimeout: 5,
		cache:               make(map[string]*Config),
	}
}

// SetDefaultTimeouts sets the timeouts, in seconds, given to sites that do
// not configure their own. It affects configs loaded afterwards.
func (cc *ConfigCache) SetDefaultTimeouts(fetch, probe int) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if fetch > 0 {
		cc.defaultTimeout = fetch
	}
	if probe > 0 {
		cc.defaultProbeTimeout = probe
	}
}

func (cc *ConfigCache) Run() error {
	if _, err := os.Stat(cc.sitesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(cc.sitesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		siteName := strings.TrimSuffix(filepath.Base(file), ".yml")

		config, err := cc.LoadConfig(siteName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Configuration loaded", "site", siteName, "enabled", config.Settings.Enabled, "pages", config.Listing.EndPage-config.Listing.StartPage+1)
	}

	return nil
}

func (cc *ConfigCache) LoadConfig(siteName string) (*Config, error) {
	configFile := cc.getConfigFilePath(siteName)
	siteConfig, err := cc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	siteConfig.Name = siteName
	cc.applyDefaults(siteConfig)

	if err := cc.validateConfig(siteConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.cache[siteConfig.Name] = siteConfig

	return siteConfig, nil
}

func (cc *ConfigCache) GetConfig(siteName string) (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	siteConfig, ok := cc.cache[siteName]
	if !ok {
		return nil, fmt.Errorf("site config with name '%s' not found", siteName)
	}
	return siteConfig, nil
}

func (cc *ConfigCache) GetConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(cc.cache))
	for k, v := range cc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (cc *ConfigCache) GetEnabledConfigs() map[string]*Config {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	return lo.PickBy(cc.cache, func(_ string, v *Config) bool {
		return v.Settings.Enabled
	})
}

// GetNames returns site names in lexical order.
func (cc *ConfigCache) GetNames() []string {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	names := lo.Keys(cc.cache)
	sort.Strings(names)
	return names
}

func (cc *ConfigCache) GetConfigCount() int {
	cc.mu.RLock()
	defer cc.mu.RUnlock()
	return len(cc.cache)
}

func (cc *ConfigCache) parseConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var siteConfig Config
	if err := yaml.Unmarshal(data, &siteConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &siteConfig, nil
}

func (cc *ConfigCache) applyDefaults(c *Config) {
	cc.mu.RLock()
	defaultTimeout, defaultProbeTimeout := cc.defaultTimeout, cc.defaultProbeTimeout
	cc.mu.RUnlock()

	if c.Listing.StartPage == 0 {
		c.Listing.StartPage = 1
	}
	if c.Listing.EndPage == 0 {
		c.Listing.EndPage = c.Listing.StartPage
	}
	if c.Listing.BaseURL == "" {
		c.Listing.BaseURL = c.Listing.URL
	}
	if c.Listing.Retries == 0 {
		c.Listing.Retries = 2
	}

	if c.Content.ImageWidth == "" {
		c.Content.ImageWidth = DefaultImageWidth
	}

	if c.Channel.Title == "" {
		c.Channel.Title = c.Name
	}
	if c.Channel.Link == "" {
		c.Channel.Link = c.Listing.BaseURL
	}
	if c.Channel.ThumbnailMetaKey == "" {
		c.Channel.ThumbnailMetaKey = DefaultThumbnailMetaKey
	}

	if c.Settings.RefreshInterval == 0 {
		c.Settings.RefreshInterval = 3600
	}
	if c.Settings.Timeout == 0 {
		c.Settings.Timeout = defaultTimeout
	}
	if c.Settings.ProbeTimeout == 0 {
		c.Settings.ProbeTimeout = defaultProbeTimeout
	}
	if c.Settings.MaxItems == 0 {
		c.Settings.MaxItems = 100
	}
}

func (cc *ConfigCache) validateConfig(siteConfig *Config) error {
	if siteConfig == nil {
		return fmt.Errorf("siteConfig is nil")
	}

	requiredFields := map[string]string{
		"site name":     siteConfig.Name,
		"listing URL":   siteConfig.Listing.URL,
		"item selector": siteConfig.Listing.ItemSelector,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	if siteConfig.Content.ContainerSelector == "" && !siteConfig.Content.ReadabilityFallback {
		return fmt.Errorf("container selector is required unless readability fallback is enabled")
	}

	nonNegativeFields := map[string]int{
		"refresh interval": siteConfig.Settings.RefreshInterval,
		"timeout":          siteConfig.Settings.Timeout,
		"probe timeout":    siteConfig.Settings.ProbeTimeout,
		"max items":        siteConfig.Settings.MaxItems,
		"retries":          siteConfig.Listing.Retries,
		"start page":       siteConfig.Listing.StartPage,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if siteConfig.Listing.EndPage < siteConfig.Listing.StartPage {
		return fmt.Errorf("end page %d is before start page %d", siteConfig.Listing.EndPage, siteConfig.Listing.StartPage)
	}
	if siteConfig.Listing.EndPage > siteConfig.Listing.StartPage && !strings.Contains(siteConfig.Listing.URL, PagePlaceholder) {
		return fmt.Errorf("listing URL must contain %s when more than one page is scraped", PagePlaceholder)
	}

	absoluteURLs := map[string]string{
		"listing URL":  strings.ReplaceAll(siteConfig.Listing.URL, PagePlaceholder, "1"),
		"base URL":     siteConfig.Listing.BaseURL,
		"channel link": siteConfig.Channel.Link,
	}
	if siteConfig.Content.CDNBase != "" {
		absoluteURLs["CDN base"] = siteConfig.Content.CDNBase
	}

	for fieldName, fieldValue := range absoluteURLs {
		if err := validateAbsoluteURL(fieldValue); err != nil {
			return fmt.Errorf("%s: %w", fieldName, err)
		}
	}

	selectors := []string{
		siteConfig.Listing.ItemSelector,
		siteConfig.Listing.ItemParentSelector,
		siteConfig.Listing.CategorySelector,
		siteConfig.Listing.TitleSelector,
		siteConfig.Content.ContainerSelector,
	}
	selectors = append(selectors, siteConfig.Content.AdSelectors...)

	for _, selector := range lo.Compact(selectors) {
		if _, err := cascadia.ParseGroup(selector); err != nil {
			return fmt.Errorf("invalid selector %q: %w", selector, err)
		}
	}

	if siteConfig.Content.Encoding != "" {
		if _, err := htmlindex.Get(siteConfig.Content.Encoding); err != nil {
			return fmt.Errorf("unsupported encoding %q: %w", siteConfig.Content.Encoding, err)
		}
	}

	validFields := map[string]bool{
		"title":      true,
		"link":       true,
		"categories": true,
	}

	for i, filter := range siteConfig.Filters {
		if !validFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}

func validateAbsoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("host is missing in %q", raw)
	}
	return nil
}

func (cc *ConfigCache) getConfigFilePath(siteName string) string {
	return filepath.Join(cc.sitesDir, siteName+".yml")
}

// PageURL renders the listing URL for one page number.
func (c *Config) PageURL(page int) string {
	return strings.ReplaceAll(c.Listing.URL, PagePlaceholder, fmt.Sprint(page))
}

// RewriteLink applies the configured substring replacements in order.
func (c *Config) RewriteLink(link string) string {
	for _, rw := range c.Listing.LinkRewrites {
		if rw.From == "" {
			continue
		}
		link = strings.ReplaceAll(link, rw.From, rw.To)
	}
	return link
}
