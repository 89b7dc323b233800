package calibration

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// Store persists calibration artifacts as JSON.
type Store struct {
	fileSys afero.Fs
	path    string
}

type StoreConfig struct {
	FileSys afero.Fs
	Path    string
}

func NewStore(cfg *StoreConfig) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.FileSys == nil {
		return nil, fmt.Errorf("fileSys is nil")
	}

	if cfg.Path == "" {
		return nil, fmt.Errorf("path is empty")
	}

	return &Store{
		fileSys: cfg.FileSys,
		path:    cfg.Path,
	}, nil
}

func (s *Store) Path() string {
	return s.path
}

// Save writes a through a temporary file so a crash never leaves a torn
// calibration behind.
func (s *Store) Save(a Artifact) error {
	data, err := Encode(a)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fileSys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fileSys, tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}

	if err := s.fileSys.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}

	return nil
}

// Load reads the stored artifact. A missing file yields ErrMissingTemplate.
func (s *Store) Load() (Artifact, error) {
	exists, err := afero.Exists(s.fileSys, s.path)
	if err != nil {
		return Artifact{}, fmt.Errorf("checking %s: %w", s.path, err)
	}

	if !exists {
		return Artifact{}, fmt.Errorf("%w at %s", ErrMissingTemplate, s.path)
	}

	data, err := afero.ReadFile(s.fileSys, s.path)
	if err != nil {
		return Artifact{}, fmt.Errorf("reading %s: %w", s.path, err)
	}

	return Decode(data)
}

// Encode renders a in the persisted format.
func Encode(a Artifact) ([]byte, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding calibration: %w", err)
	}

	return append(data, '\n'), nil
}

// Decode parses the persisted format.
func Decode(data []byte) (Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("decoding calibration: %w", err)
	}

	return a, nil
}
