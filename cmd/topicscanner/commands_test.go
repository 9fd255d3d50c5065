package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCurationCommands(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("TOPIC_SCANNER_CONFIG", "")
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "topics", "--niche", "Crypto / Web3")
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	if !strings.Contains(out, "seed-polymarket") || strings.Contains(out, "seed-perplexity") {
		t.Fatalf("unexpected topic list:\n%s", out)
	}

	if _, err := run(t, "status", "seed-polymarket", "starred"); err != nil {
		t.Fatalf("status: %v", err)
	}
	if _, err := run(t, "draft", "seed-polymarket", "--text", "My draft"); err != nil {
		t.Fatalf("draft: %v", err)
	}

	out, err = run(t, "show", "seed-polymarket")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "Status: drafted") || !strings.Contains(out, "My draft") {
		t.Fatalf("unexpected show output:\n%s", out)
	}

	out, err = run(t, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "Topics: 2") {
		t.Fatalf("unexpected stats:\n%s", out)
	}

	if _, err := run(t, "status", "seed-polymarket", "archived"); err == nil {
		t.Fatal("expected invalid status to fail")
	}
	if _, err := run(t, "topics", "--source", "reddit"); err == nil {
		t.Fatal("expected unknown source to fail")
	}
}

func TestConfigFlagSelectsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topicscanner.yaml")
	raw := `
seeds:
  - id: cfg-seed
    title: Seed from the config flag
    niches: ["AI Marketing"]
    contentType: tools
    ageHours: 3
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", filepath.Join(dir, "cli.db"))
	t.Setenv("TOPIC_SCANNER_CONFIG", "")
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "topics", "--config", path)
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	if !strings.Contains(out, "cfg-seed") || strings.Contains(out, "seed-polymarket") {
		t.Fatalf("config file not applied:\n%s", out)
	}
	if got := os.Getenv("TOPIC_SCANNER_CONFIG"); got != "" {
		t.Fatalf("config flag leaked into the environment: %q", got)
	}
}

func TestBuildFilter(t *testing.T) {
	t.Parallel()

	filter, err := buildFilter("coingecko", "viral", "GTM Strategy", true)
	if err != nil {
		t.Fatalf("build filter: %v", err)
	}
	if filter.Source != "coingecko" || filter.ContentType != "viral" || filter.Niche != "GTM Strategy" || filter.Sort != "fresh" {
		t.Fatalf("unexpected filter %+v", filter)
	}
	if _, err := buildFilter("", "", "Gardening", false); err == nil {
		t.Fatal("expected unknown niche to fail")
	}
}
