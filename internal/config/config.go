// Package config loads project-level defaults from .contextkit/config.yaml
// so CLI flags only need to override what differs from the project norm.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/contextkit/contextkit/internal/chunker"
	"github.com/contextkit/contextkit/internal/discovery"
	"github.com/contextkit/contextkit/internal/embedder"
)

// DirName is the per-project directory holding the config file, the
// SQLite index, and any local state.
const DirName = ".contextkit"

// FileName is the config file's name within DirName.
const FileName = "config.yaml"

// Config holds every project-level default. Zero values are filled in by
// Defaults and by each consuming package's own withDefaults.
type Config struct {
	DefaultBudget int    `yaml:"default_budget"`
	DefaultFormat string `yaml:"default_format"`
	DefaultMode   string `yaml:"default_mode"`

	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`

	EmbeddingBatchSize int `yaml:"embedding_batch_size"`

	DefaultInclude []string `yaml:"default_include"`
	DefaultExclude []string `yaml:"default_exclude"`
}

// Defaults returns the out-of-the-box configuration, the one `init`
// writes and every command falls back to when no config file exists.
func Defaults() Config {
	return Config{
		DefaultBudget:      8000,
		DefaultFormat:      "markdown",
		DefaultMode:        "full",
		ChunkSize:          chunker.DefaultChunkSize,
		ChunkOverlap:       chunker.DefaultOverlap,
		MaxFileSizeBytes:   discovery.DefaultMaxFileBytes,
		EmbeddingBatchSize: embedder.DefaultBatchSize,
		DefaultExclude:     []string{"**/node_modules/**", "**/.git/**", "**/vendor/**", "**/dist/**", "**/build/**"},
	}
}

// Path returns the config file path for a project rooted at dir.
func Path(dir string) string {
	return filepath.Join(dir, DirName, FileName)
}

// Load reads the config file at dir's .contextkit/config.yaml, overlaying
// it on Defaults. A missing file is not an error: it returns Defaults().
func Load(dir string) (Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(Path(dir)) // #nosec G304 - path is derived from the project root, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes cfg to dir's .contextkit/config.yaml, creating the
// directory if needed.
func Save(dir string, cfg Config) error {
	if err := os.MkdirAll(filepath.Join(dir, DirName), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(Path(dir), data, 0o644)
}

// Initialized reports whether dir already has a .contextkit directory.
func Initialized(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, DirName))
	return err == nil
}
