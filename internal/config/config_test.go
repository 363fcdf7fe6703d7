package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"statusdeck/internal/config"
	"statusdeck/internal/domain"
)

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
scan:
  endpoints:
    - url: https://example.com/account/applications/abc/status
      headers:
        x-channel: WEB
    - url: https://example.com/fallback/status

update:
  repo: acme/statusdeck

knowledge_base:
  overrides:
    PEND_DOC_UPLOAD:
      title: "Pending - Document Upload"
      description: "Documents were requested."
      sentiment: warning
`))
	if err != nil {
		t.Fatalf("from yaml: %v", err)
	}
	if len(cfg.Scan.Endpoints) != 2 {
		t.Fatalf("endpoints: %+v", cfg.Scan.Endpoints)
	}
	if cfg.Scan.Endpoints[0].Headers["x-channel"] != "WEB" {
		t.Fatalf("headers not parsed: %+v", cfg.Scan.Endpoints[0])
	}
	if cfg.Update.Repo != "acme/statusdeck" {
		t.Fatalf("update repo: %q", cfg.Update.Repo)
	}
	if cfg.KnowledgeBase.Overrides["PEND_DOC_UPLOAD"].Sentiment != "warning" {
		t.Fatalf("overrides not parsed: %+v", cfg.KnowledgeBase.Overrides)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"relative url", "scan:\n  endpoints:\n    - url: /not/absolute\n"},
		{"empty url", "scan:\n  endpoints:\n    - headers:\n        a: b\n"},
		{"bad sentiment", "knowledge_base:\n  overrides:\n    X:\n      title: T\n      sentiment: angry\n"},
		{"missing title", "knowledge_base:\n  overrides:\n    X:\n      sentiment: warning\n"},
		{"not yaml", "scan: [unclosed\n"},
	}
	for _, tc := range cases {
		if _, err := config.FromYAML([]byte(tc.yaml)); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}
}

func TestCatalogAppliesOverrides(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
knowledge_base:
  overrides:
    PEND_DOC_UPLOAD:
      title: "Pending - Document Upload"
      sentiment: warning
`))
	if err != nil {
		t.Fatalf("from yaml: %v", err)
	}
	catalog := cfg.Catalog()
	cls := catalog.Classify("PEND_DOC_UPLOAD")
	if cls.Title != "Pending - Document Upload" || cls.Sentiment != domain.SentimentWarning || !cls.Actionable {
		t.Fatalf("override not applied: %+v", cls)
	}
	if cls := catalog.Classify("APPROVED"); cls.Sentiment != domain.SentimentSuccess {
		t.Fatalf("builtin entries lost: %+v", cls)
	}
}

func TestLoadOptional(t *testing.T) {
	workspace := t.TempDir()
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		t.Fatalf("load optional on empty workspace: %v", err)
	}
	if len(cfg.Scan.Endpoints) != 0 {
		t.Fatalf("default config should have no endpoints: %+v", cfg)
	}

	if _, err := config.Load(workspace); err == nil {
		t.Fatal("Load should fail when the file is missing")
	}

	path := filepath.Join(workspace, "statusdeck.yml")
	if err := os.WriteFile(path, []byte("update:\n  repo: acme/statusdeck\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = config.Load(workspace)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Update.Repo != "acme/statusdeck" {
		t.Fatalf("repo: %q", cfg.Update.Repo)
	}
}

func TestGenerateDefaultParses(t *testing.T) {
	out := config.GenerateDefault()
	if !strings.Contains(out, "scan:") {
		t.Fatalf("template missing scan section:\n%s", out)
	}
	if _, err := config.FromYAML([]byte(out)); err != nil {
		t.Fatalf("generated template must validate: %v", err)
	}
}
