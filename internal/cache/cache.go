package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ThandieOps/muda/internal/model"
	"github.com/ThandieOps/muda/internal/scanner"
	"github.com/google/uuid"
)

// TargetRecord is the outcome of one built target
type TargetRecord struct {
	Directory   string            `json:"directory" yaml:"directory"`
	Name        string            `json:"name" yaml:"name"`
	Kind        model.Kind        `json:"kind" yaml:"kind"`
	Application model.Application `json:"application" yaml:"application"`
	Artifact    string            `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	// BuildDirectory and Objects are absolute paths the build writes to.
	// Objects may hold glob patterns when the sources do.
	BuildDirectory string   `json:"build_directory,omitempty" yaml:"build_directory,omitempty"`
	Objects        []string `json:"objects,omitempty" yaml:"objects,omitempty"`
	// Stage is the last stage the target reached
	Stage     string   `json:"stage" yaml:"stage"`
	Succeeded bool     `json:"succeeded" yaml:"succeeded"`
	Commands  []string `json:"commands,omitempty" yaml:"commands,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the record of one build run
type Report struct {
	RunID         string               `json:"run_id" yaml:"run_id"`
	RootDirectory string               `json:"root_directory" yaml:"root_directory"`
	StartedAt     time.Time            `json:"started_at" yaml:"started_at"`
	FinishedAt    time.Time            `json:"finished_at" yaml:"finished_at"`
	Compiler      model.Compiler       `json:"compiler" yaml:"compiler"`
	DryRun        bool                 `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Git           *scanner.GitMetadata `json:"git,omitempty" yaml:"git,omitempty"`
	Targets       []TargetRecord       `json:"targets" yaml:"targets"`
}

// NewReport starts a report for a run rooted at root
func NewReport(root string, compiler model.Compiler) *Report {
	return &Report{
		RunID:         uuid.NewString(),
		RootDirectory: root,
		StartedAt:     time.Now(),
		Compiler:      compiler,
	}
}

// Failed returns the number of targets that did not succeed
func (r *Report) Failed() int {
	n := 0
	for _, t := range r.Targets {
		if !t.Succeeded {
			n++
		}
	}
	return n
}

// Succeeded reports whether every target succeeded
func (r *Report) Succeeded() bool {
	return r.Failed() == 0
}

// Duration is the wall time of the run
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Cache stores the last build report of every root directory
type Cache struct {
	cacheDir string
}

// New creates a cache in the per-user cache directory
func New() (*Cache, error) {
	cacheDir, err := getCacheDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get cache directory: %w", err)
	}
	return NewAt(cacheDir)
}

// NewAt creates a cache rooted at dir
func NewAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{cacheDir: dir}, nil
}

// getCacheDir returns the platform-appropriate cache directory
func getCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		// Fallback to home directory if cache dir unavailable
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheDir = filepath.Join(homeDir, ".cache")
	}

	return filepath.Join(cacheDir, "muda", "reports"), nil
}

// SaveReport replaces the stored report for r.RootDirectory
func (c *Cache) SaveReport(r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal build report: %w", err)
	}

	if err := os.WriteFile(c.ReportPath(r.RootDirectory), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return nil
}

// LoadReport loads the last report for root
func (c *Cache) LoadReport(root string) (*Report, error) {
	cacheFile := c.ReportPath(root)

	data, err := os.ReadFile(cacheFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("no build report found for %s", root)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache file: %w", err)
	}
	return &report, nil
}

// HasReport checks if a report exists for root
func (c *Cache) HasReport(root string) bool {
	_, err := os.Stat(c.ReportPath(root))
	return err == nil
}

// ReportPath generates a safe cache file path from the root directory
func (c *Cache) ReportPath(root string) string {
	hash := sha256.Sum256([]byte(root))
	hashStr := hex.EncodeToString(hash[:])
	return filepath.Join(c.cacheDir, fmt.Sprintf("build_%s.json", hashStr[:16]))
}

// Dir returns the cache directory path
func (c *Cache) Dir() string {
	return c.cacheDir
}

// Clear removes all cached reports
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			filePath := filepath.Join(c.cacheDir, entry.Name())
			if err := os.Remove(filePath); err != nil {
				return fmt.Errorf("failed to remove cache file %s: %w", filePath, err)
			}
		}
	}
	return nil
}
