package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

const kindCookie = "cookie"

// CookieStore manages cookie files in a single directory. Names are file
// names, stored without adding an extension.
type CookieStore struct {
	dir string
}

// NewCookieStore creates a store rooted at dir. The directory is created on first write.
func NewCookieStore(dir string) *CookieStore {
	return &CookieStore{dir: dir}
}

// Dir returns the cookies directory.
func (s *CookieStore) Dir() string { return s.dir }

// List returns the sorted cookie file names.
func (s *CookieStore) List() ([]string, error) {
	return listNames(s.dir, "")
}

// Path validates name and returns the file it maps to.
func (s *CookieStore) Path(name string) (string, error) {
	if err := ValidateName(kindCookie, name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// Exists reports whether a valid name refers to an existing file.
func (s *CookieStore) Exists(name string) bool {
	path, err := s.Path(name)
	return err == nil && fileExists(path)
}

// Get returns the content of a cookie file.
func (s *CookieStore) Get(name string) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}
	return readFile(kindCookie, name, path)
}

// Create stores a new cookie file after validating its format.
func (s *CookieStore) Create(name, content string) error {
	return s.put(name, content, false)
}

// Update replaces an existing cookie file after validating its format.
func (s *CookieStore) Update(name, content string) error {
	return s.put(name, content, true)
}

func (s *CookieStore) put(name, content string, mustExist bool) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return errors.ValidationError("cookie content cannot be empty").WithContext(kindCookie, name).Build()
	}

	exists := fileExists(path)
	if mustExist && !exists {
		return errors.NotFoundError("cookie not found").WithContext(kindCookie, name).Build()
	}
	if !mustExist && exists {
		return errors.AlreadyExistsError("cookie already exists").WithContext(kindCookie, name).Build()
	}
	if !ValidCookieFormat(content) {
		return errors.ValidationError("invalid cookie file format, expected Netscape format or JSON").
			WithContext(kindCookie, name).Build()
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create cookies directory").
			WithContext("path", s.dir).Build()
	}
	return writeAtomic(path, []byte(content), 0o600)
}

// Delete removes a cookie file.
func (s *CookieStore) Delete(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	return removeFile(kindCookie, name, path)
}

// ValidCookieFormat accepts Netscape cookie files (header or comment lines
// and seven tab-separated fields per cookie) and JSON cookie exports.
func ValidCookieFormat(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	if strings.HasPrefix(content, "#") || strings.HasPrefix(content, "// Netscape HTTP Cookie File") {
		return true
	}

	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return json.Valid([]byte(trimmed))
	}

	lines := strings.FieldsFunc(content, func(r rune) bool { return r == '\n' || r == '\r' })
	if len(lines) == 0 {
		return false
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			continue
		}
		if len(strings.Split(line, "\t")) != 7 {
			return false
		}
	}
	return true
}
