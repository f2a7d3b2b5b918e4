// Package screenshot stores browser screenshots as on-disk artifacts,
// grouped per execution.
package screenshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/verity/pkg/logging"
)

// Store writes screenshots under a base directory, one subdirectory per
// execution ID, with files named "{step}_{timestamp}.png".
type Store struct {
	basePath string
	logger   logging.Logger
}

// NewStore creates the base directory if needed.
func NewStore(basePath string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if err := os.MkdirAll(basePath, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory: %w", err)
	}
	return &Store{basePath: basePath, logger: logger}, nil
}

// BasePath returns the root artifact directory.
func (s *Store) BasePath() string {
	return s.basePath
}

// NewExecutionID generates an identifier for one suite execution, combining
// a timestamp with a short random suffix so directories sort naturally.
func NewExecutionID() string {
	return fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
}

// Save writes screenshot bytes for the given execution and step, returning
// the path of the written file.
func (s *Store) Save(executionID, stepName string, data []byte) (string, error) {
	dir := filepath.Join(s.basePath, executionID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create execution directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.png", sanitizeStepName(stepName), time.Now().Format("20060102_150405.000"))
	path := filepath.Join(dir, filename)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}

	s.logger.Debug("screenshot saved", map[string]interface{}{"path": path})
	return path, nil
}

// Info describes one stored screenshot.
type Info struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the screenshots for an execution, oldest first. A missing
// execution directory yields an empty list, not an error.
func (s *Store) List(executionID string) ([]Info, error) {
	dir := filepath.Join(s.basePath, executionID)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list screenshots: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Filename:  entry.Name(),
			Path:      filepath.Join(executionID, entry.Name()),
			Size:      fi.Size(),
			CreatedAt: fi.ModTime(),
		})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].CreatedAt.Before(infos[j].CreatedAt) })
	return infos, nil
}

// Resolve returns the absolute path of a stored screenshot, or an error if
// it does not exist or the name tries to escape the store.
func (s *Store) Resolve(executionID, filename string) (string, error) {
	if strings.Contains(executionID, "..") || strings.Contains(filename, "..") {
		return "", fmt.Errorf("invalid artifact path")
	}

	path := filepath.Join(s.basePath, executionID, filename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("screenshot not found: %w", err)
	}
	return path, nil
}

// SaveMetadata writes a metadata JSON document next to the screenshots.
func (s *Store) SaveMetadata(executionID string, metadata map[string]interface{}) error {
	dir := filepath.Join(s.basePath, executionID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create execution directory: %w", err)
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0o600); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// Cleanup removes all artifacts for one execution.
func (s *Store) Cleanup(executionID string) error {
	if strings.Contains(executionID, "..") {
		return fmt.Errorf("invalid execution id")
	}
	return os.RemoveAll(filepath.Join(s.basePath, executionID))
}

// sanitizeStepName makes a scenario-derived name safe for filenames.
func sanitizeStepName(name string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_")
	out := replacer.Replace(name)
	if out == "" {
		out = "screenshot"
	}
	return out
}
