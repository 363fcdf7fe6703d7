package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"statusdeck/internal/domain"
	"statusdeck/internal/kb"
)

// Config models statusdeck.yml: the scan endpoint chain, the update feed,
// and optional knowledge-base overrides.
type Config struct {
	Scan struct {
		Endpoints []Endpoint `yaml:"endpoints"`
	} `yaml:"scan"`
	Update struct {
		// Repo is the "owner/name" of the release feed checked by
		// check-update. Empty disables the check.
		Repo string `yaml:"repo"`
	} `yaml:"update"`
	KnowledgeBase struct {
		Overrides map[string]CodeOverride `yaml:"overrides"`
	} `yaml:"knowledge_base"`
}

// Endpoint is one scan candidate, tried in listed order.
type Endpoint struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// CodeOverride adds or replaces one knowledge-base entry.
type CodeOverride struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Sentiment   string `yaml:"sentiment"`
}

var validSentiments = map[string]bool{
	string(domain.SentimentSuccess): true,
	string(domain.SentimentWarning): true,
	string(domain.SentimentError):   true,
	string(domain.SentimentNeutral): true,
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	for i, ep := range c.Scan.Endpoints {
		if ep.URL == "" {
			return fmt.Errorf("scan.endpoints[%d].url is required", i)
		}
		u, err := url.Parse(ep.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("scan.endpoints[%d].url %q is not an absolute URL", i, ep.URL)
		}
	}
	for code, ov := range c.KnowledgeBase.Overrides {
		if code == "" {
			return fmt.Errorf("knowledge_base.overrides contains an empty status code")
		}
		if ov.Title == "" {
			return fmt.Errorf("override for %s is missing title", code)
		}
		if !validSentiments[ov.Sentiment] {
			return fmt.Errorf("override for %s has invalid sentiment %q (success, warning, error, neutral)", code, ov.Sentiment)
		}
	}
	return nil
}

// Catalog returns the knowledge base with this config's overrides applied.
func (c *Config) Catalog() kb.Catalog {
	if c == nil || len(c.KnowledgeBase.Overrides) == 0 {
		return kb.Default()
	}
	overrides := make(map[string]kb.Entry, len(c.KnowledgeBase.Overrides))
	for code, ov := range c.KnowledgeBase.Overrides {
		overrides[code] = kb.Entry{
			Title:       ov.Title,
			Description: ov.Description,
			Sentiment:   domain.Sentiment(ov.Sentiment),
		}
	}
	return kb.WithOverrides(overrides)
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "statusdeck.yml")
}

// Load reads and validates config from the workspace. A missing file is an
// error; use LoadOptional when the config is not required.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with sd config init", Path(workspace))
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config when the file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in config: no scan endpoints, no overrides.
func Default() *Config {
	return &Config{}
}

// GenerateDefault returns a starter statusdeck.yml.
func GenerateDefault() string {
	return defaultTemplate
}

const defaultTemplate = `# statusdeck configuration
scan:
  endpoints: []
  # endpoints:
  #   - url: https://example.com/account/applications/<uuid>/status
  #     headers:
  #       x-channel: WEB

update:
  repo: ""

knowledge_base:
  overrides: {}
  # overrides:
  #   PEND_DOC_UPLOAD:
  #     title: "Pending - Document Upload"
  #     description: "Documents were requested and not yet received."
  #     sentiment: warning
`
