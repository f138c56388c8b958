package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Supported authority adapters.
const (
	AdapterGISv3    = "gis-v3"
	AdapterDTABACv0 = "dtabac-v0"
)

var validAdapters = map[string]bool{
	AdapterGISv3:    true,
	AdapterDTABACv0: true,
}

// path segments are used verbatim in routes
var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Provider is one token provider: an authority endpoint served under its own path segment.
type Provider struct {
	// Name is the path segment the provider is served under
	Name        string
	Adapter     string
	URL         string
	Certificate string
	Expiration  time.Duration
}

// ProviderSet is the result of loading a providers file.
type ProviderSet struct {
	// Providers holds the valid providers, ordered by name
	Providers []Provider

	// Problems holds one error per provider that was skipped
	Problems []error
}

// providerFile is the on-disk shape, e.g.
//
//	providers:
//	  gis:
//	    adapter: gis-v3
//	    url: https://markirovka.example
//	    certificate: 01A2B3C4
//	    expiration: 10h
type providerFile struct {
	Providers map[string]providerEntry `yaml:"providers"`
}

type providerEntry struct {
	Adapter     string `yaml:"adapter"`
	URL         string `yaml:"url"`
	Certificate string `yaml:"certificate"`
	Expiration  string `yaml:"expiration"`
}

// LoadProviders reads the providers file at path. Files ending in .json or
// .jsonc are read as JSON (comments and trailing commas allowed), anything
// else as YAML.
//
// Providers that fail validation are skipped and reported in Problems. An
// error is returned if the file cannot be read or parsed, or if no valid
// provider remains.
func LoadProviders(path string) (*ProviderSet, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is from server configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read providers file: %w", err)
	}
	return ParseProviders(data, filepath.Ext(path))
}

// ParseProviders parses providers file content. ext selects the format as in LoadProviders.
func ParseProviders(data []byte, ext string) (*ProviderSet, error) {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	var file providerFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse providers file: %w", err)
	}
	if len(file.Providers) == 0 {
		return nil, fmt.Errorf("providers file does not define any providers")
	}

	names := make([]string, 0, len(file.Providers))
	for name := range file.Providers {
		names = append(names, name)
	}
	sort.Strings(names)

	set := &ProviderSet{}
	for _, name := range names {
		p, err := validateProvider(name, file.Providers[name])
		if err != nil {
			set.Problems = append(set.Problems, err)
			continue
		}
		set.Providers = append(set.Providers, p)
	}

	if len(set.Providers) == 0 {
		return set, fmt.Errorf("no valid providers configured: %w", errors.Join(set.Problems...))
	}
	return set, nil
}

// validateProvider reports every problem of one entry, not only the first.
func validateProvider(name string, e providerEntry) (Provider, error) {
	var errs []error

	if !segmentPattern.MatchString(name) {
		errs = append(errs, fmt.Errorf("name is not a valid path segment"))
	}

	adapter := strings.TrimSpace(e.Adapter)
	switch {
	case adapter == "":
		errs = append(errs, fmt.Errorf("adapter is required"))
	case !validAdapters[adapter]:
		errs = append(errs, fmt.Errorf("configured adapter '%s' is not supported", adapter))
	}

	u, err := url.Parse(strings.TrimSpace(e.URL))
	if e.URL == "" {
		errs = append(errs, fmt.Errorf("url is required"))
	} else if err != nil || !u.IsAbs() || u.Host == "" {
		errs = append(errs, fmt.Errorf("url '%s' is not an absolute URL", e.URL))
	}

	if adapter == AdapterGISv3 && strings.TrimSpace(e.Certificate) == "" {
		errs = append(errs, fmt.Errorf("certificate is required for adapter %s", AdapterGISv3))
	}

	expiration, err := parseExpiration(e.Expiration)
	if err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return Provider{}, fmt.Errorf("provider %s: %w", name, errors.Join(errs...))
	}

	return Provider{
		Name:        name,
		Adapter:     adapter,
		URL:         strings.TrimSpace(e.URL),
		Certificate: strings.TrimSpace(e.Certificate),
		Expiration:  expiration,
	}, nil
}

// parseExpiration accepts Go durations ("10h", "90m") and clock notation ("10:00:00").
func parseExpiration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("expiration is required")
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		d, err = parseClockDuration(s)
	}
	if err != nil {
		return 0, fmt.Errorf("configured expiration '%s' is not a valid duration", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("configured expiration '%s' must be positive", s)
	}
	return d, nil
}

func parseClockDuration(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected hh:mm:ss")
	}
	units := []time.Duration{time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("expected hh:mm:ss")
		}
		if i > 0 && n > 59 {
			return 0, fmt.Errorf("expected hh:mm:ss")
		}
		d += time.Duration(n) * units[i]
	}
	return d, nil
}
