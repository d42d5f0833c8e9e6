package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lexicon.Relation != "primary" {
		t.Errorf("Lexicon.Relation = %q, want primary", cfg.Lexicon.Relation)
	}
	wantRoots := []string{"människa", "person", "djur", "varelse"}
	if !reflect.DeepEqual(cfg.Lexicon.Roots, wantRoots) {
		t.Errorf("Lexicon.Roots = %v, want %v", cfg.Lexicon.Roots, wantRoots)
	}
	if cfg.Corpus.PosPrefix != "NN" || cfg.Corpus.Source != "file" {
		t.Errorf("corpus defaults = %+v", cfg.Corpus)
	}
	if cfg.Classify.MaxDepth != 50 {
		t.Errorf("Classify.MaxDepth = %d, want 50", cfg.Classify.MaxDepth)
	}
	if cfg.Sample.N != 50 || cfg.Sample.Seed != 42 || cfg.Sample.StrataCount != 10 {
		t.Errorf("sample defaults = %+v", cfg.Sample)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config fails validation: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	const doc = `
lexicon:
  path: /data/saldo.xml
  roots: [djur, varelse]
corpus:
  posPrefix: NN
  minFrequency: 10
sample:
  n: 200
  seed: 7
logging:
  level: debug
`
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lexicon.Path != "/data/saldo.xml" {
		t.Errorf("Lexicon.Path = %q", cfg.Lexicon.Path)
	}
	if !reflect.DeepEqual(cfg.Lexicon.Roots, []string{"djur", "varelse"}) {
		t.Errorf("Lexicon.Roots = %v", cfg.Lexicon.Roots)
	}
	if cfg.Corpus.MinFrequency != 10 {
		t.Errorf("Corpus.MinFrequency = %d, want 10", cfg.Corpus.MinFrequency)
	}
	if cfg.Sample.N != 200 || cfg.Sample.Seed != 7 {
		t.Errorf("sample = %+v", cfg.Sample)
	}
	// Unset file values keep their defaults.
	if cfg.Classify.MaxDepth != 50 {
		t.Errorf("Classify.MaxDepth = %d, want default 50", cfg.Classify.MaxDepth)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("lexicon: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Fatalf("err = %v, want parse error", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SA_LEXICON_PATH", "/override/saldo.xml")
	t.Setenv("SA_LEXICON_ROOTS", "djur,person")
	t.Setenv("SA_CORPUS_MIN_FREQUENCY", "25")
	t.Setenv("SA_SAMPLE_SEED", "99")
	t.Setenv("SA_SAMPLE_N", "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Lexicon.Path != "/override/saldo.xml" {
		t.Errorf("Lexicon.Path = %q", cfg.Lexicon.Path)
	}
	if !reflect.DeepEqual(cfg.Lexicon.Roots, []string{"djur", "person"}) {
		t.Errorf("Lexicon.Roots = %v", cfg.Lexicon.Roots)
	}
	if cfg.Corpus.MinFrequency != 25 {
		t.Errorf("Corpus.MinFrequency = %d, want 25", cfg.Corpus.MinFrequency)
	}
	if cfg.Sample.Seed != 99 {
		t.Errorf("Sample.Seed = %d, want 99", cfg.Sample.Seed)
	}
	// Unparsable numeric overrides are ignored.
	if cfg.Sample.N != 50 {
		t.Errorf("Sample.N = %d, want default 50", cfg.Sample.N)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative sample n", func(c *Config) { c.Sample.N = -1 }},
		{"zero strata", func(c *Config) { c.Sample.StrataCount = 0 }},
		{"zero max depth", func(c *Config) { c.Classify.MaxDepth = 0 }},
		{"bad corpus source", func(c *Config) { c.Corpus.Source = "ftp" }},
		{"no roots", func(c *Config) { c.Lexicon.Roots = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: 5433, User: "u", Password: "pw",
		Database: "animacy", SSLMode: "disable",
	}
	want := "host=db port=5433 user=u password=pw dbname=animacy sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
