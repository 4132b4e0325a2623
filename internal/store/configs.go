package store

import (
	stderrors "errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/ytdlpd/internal/confnorm"
	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/logfields"
	"git.home.luguber.info/inful/ytdlpd/internal/metrics"
)

// ConfigExt is the file extension of stored yt-dlp config files.
const ConfigExt = ".conf"

const kindConfig = "config"

// NormalizeResult reports the outcome of normalizing one stored config.
type NormalizeResult struct {
	Name    string `json:"name"`
	Changed bool   `json:"changed"`
	Content string `json:"content,omitempty"`
}

// ConfigStore manages <name>.conf files in a single directory.
type ConfigStore struct {
	dir        string
	normalizer *confnorm.Normalizer
	recorder   metrics.Recorder
	// mu serializes writes so a read-normalize-write cycle cannot interleave
	// with an API update of the same file.
	mu sync.Mutex
}

// NewConfigStore creates a store rooted at dir.
func NewConfigStore(dir string, normalizer *confnorm.Normalizer, recorder metrics.Recorder) *ConfigStore {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &ConfigStore{dir: dir, normalizer: normalizer, recorder: recorder}
}

// Dir returns the directory the store reads from.
func (s *ConfigStore) Dir() string { return s.dir }

// Normalizer returns the normalizer applied on write.
func (s *ConfigStore) Normalizer() *confnorm.Normalizer { return s.normalizer }

// List returns the names of all stored configs without extension.
func (s *ConfigStore) List() ([]string, error) {
	return listNames(s.dir, ConfigExt)
}

// Path returns the file path for name. A trailing .conf is accepted.
func (s *ConfigStore) Path(name string) (string, error) {
	name = strings.TrimSuffix(name, ConfigExt)
	if err := ValidateName(kindConfig, name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name+ConfigExt), nil
}

// Exists reports whether a config with this name is stored.
func (s *ConfigStore) Exists(name string) bool {
	path, err := s.Path(name)
	return err == nil && fileExists(path)
}

// Get returns the raw content of a stored config.
func (s *ConfigStore) Get(name string) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}
	return readFile(kindConfig, name, path)
}

// Create stores a new config and returns the normalized content written.
func (s *ConfigStore) Create(name, content string) (string, error) {
	return s.put(name, content, false)
}

// Update replaces an existing config and returns the normalized content written.
func (s *ConfigStore) Update(name, content string) (string, error) {
	return s.put(name, content, true)
}

func (s *ConfigStore) put(name, content string, mustExist bool) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	exists := fileExists(path)
	if mustExist && !exists {
		return "", errors.NotFoundError("config not found").WithContext(kindConfig, name).Build()
	}
	if !mustExist && exists {
		return "", errors.AlreadyExistsError("config already exists").WithContext(kindConfig, name).Build()
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to create configs directory").
			WithContext("path", s.dir).Build()
	}

	normalized := s.normalizer.Normalize(content)
	s.recorder.ObserveNormalization(normalized != content)
	if err := writeAtomic(path, []byte(normalized), 0o644); err != nil {
		return "", err
	}
	return normalized, nil
}

// Delete removes a stored config.
func (s *ConfigStore) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeFile(kindConfig, name, path)
}

// Normalize rewrites a stored config in canonical form. The file is only
// written when its content changes.
func (s *ConfigStore) Normalize(name string) (NormalizeResult, error) {
	path, err := s.Path(name)
	if err != nil {
		return NormalizeResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := readFile(kindConfig, name, path)
	if err != nil {
		return NormalizeResult{}, err
	}

	normalized := s.normalizer.Normalize(raw)
	res := NormalizeResult{Name: strings.TrimSuffix(name, ConfigExt), Changed: normalized != raw, Content: normalized}
	s.recorder.ObserveNormalization(res.Changed)
	if !res.Changed {
		return res, nil
	}
	if err := writeAtomic(path, []byte(normalized), 0o644); err != nil {
		return NormalizeResult{}, err
	}
	slog.Info("Normalized config", logfields.Config(res.Name), logfields.Path(path))
	return res, nil
}

// NormalizeAll normalizes every stored config. Failures on individual
// files do not stop the sweep; they are joined into the returned error.
func (s *ConfigStore) NormalizeAll() ([]NormalizeResult, error) {
	names, err := s.List()
	if err != nil {
		return nil, err
	}

	results := make([]NormalizeResult, 0, len(names))
	var errs []error
	for _, name := range names {
		res, err := s.Normalize(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res.Content = ""
		results = append(results, res)
	}
	return results, stderrors.Join(errs...)
}
