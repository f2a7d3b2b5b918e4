package suite

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/verity/pkg/logging"
)

var versionPattern = regexp.MustCompile(`^\d+(\.\d+)*$`)

// Parser loads and validates YAML suite definitions.
type Parser struct {
	logger logging.Logger
}

// NewParser creates a parser logging through the given logger.
func NewParser(logger logging.Logger) *Parser {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Parser{logger: logger}
}

// ParseFile reads and parses a YAML suite file.
func (p *Parser) ParseFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	s, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	p.logger.Info("loaded suite file", map[string]interface{}{
		"path":      path,
		"suite":     s.Name,
		"scenarios": len(s.Scenarios),
	})
	return s, nil
}

// Parse decodes YAML content into a validated Suite. Relative scenario URLs
// are resolved against base_url before validation, defaults are applied
// from global_config, and the result is ready to execute.
func (p *Parser) Parse(content []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(content, &s); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	p.applyDefaults(&s)
	p.resolveURLs(&s)

	if s.Version != "" && !versionPattern.MatchString(s.Version) {
		return nil, fmt.Errorf("invalid version %q (expected e.g. \"1.0\")", s.Version)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// applyDefaults fills per-scenario gaps from suite-level configuration.
func (p *Parser) applyDefaults(s *Suite) {
	if s.Version == "" {
		s.Version = "1.0"
	}
	if s.Provider == "" {
		s.Provider = "openai"
	}

	gc := s.GlobalConfig
	for i := range s.Scenarios {
		sc := &s.Scenarios[i]
		if sc.TestType == "" {
			sc.TestType = TestTypeFunctional
		}
		if len(sc.Browsers) == 0 {
			sc.Browsers = []string{"chromium"}
		}
		if gc != nil {
			if sc.Timeout <= 0 && gc.DefaultTimeout > 0 {
				sc.Timeout = gc.DefaultTimeout
			}
			if sc.RetryCount <= 0 && gc.DefaultRetryCount > 0 {
				sc.RetryCount = gc.DefaultRetryCount
			}
			if sc.Viewport == nil && gc.DefaultViewport != nil {
				vp := *gc.DefaultViewport
				sc.Viewport = &vp
			}
		}
	}
}

// resolveURLs rewrites relative scenario URLs against the suite base URL.
func (p *Parser) resolveURLs(s *Suite) {
	if s.BaseURL == "" {
		return
	}
	base := strings.TrimRight(s.BaseURL, "/")
	for i := range s.Scenarios {
		sc := &s.Scenarios[i]
		if sc.URL == "" || isAbsoluteURL(sc.URL) {
			continue
		}
		sc.URL = base + "/" + strings.TrimLeft(sc.URL, "/")
	}
}

func isAbsoluteURL(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
