package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
)

// DefaultFilePath is used when no path is configured
const DefaultFilePath = "data/settings.json"

// FileStore keeps settings in a JSON file.
// The file is created on the first Save.
type FileStore struct {
	mu       sync.RWMutex
	filePath string
}

// NewFileStore creates a file-backed store at filePath
func NewFileStore(filePath string) *FileStore {
	if filePath == "" {
		filePath = DefaultFilePath
	}
	return &FileStore{filePath: filePath}
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.filePath
}

// Load reads the settings file
func (s *FileStore) Load(ctx context.Context) (Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return Settings{}, fmt.Errorf("failed to read settings file: %w", err)
	}

	var out Settings
	if err := sonic.Unmarshal(data, &out); err != nil {
		return Settings{}, fmt.Errorf("failed to parse settings file: %w", err)
	}
	return out.withDefaults(), nil
}

// Save writes the settings file atomically
func (s *FileStore) Save(ctx context.Context, settings Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := sonic.ConfigStd.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	// temp file + rename
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename settings file: %w", err)
	}
	return nil
}

// Close is a no-op for the file store
func (s *FileStore) Close() error {
	return nil
}
