package store

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
)

const maxNameLength = 128

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateName rejects names that could escape the store directory.
func ValidateName(kind, name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.ValidationError(kind + " name cannot be empty").Build()
	case len(name) > maxNameLength:
		return errors.ValidationError(kind+" name is too long").
			WithContext("name", name).
			WithContext("max_length", maxNameLength).
			Build()
	case strings.Contains(name, ".."), !namePattern.MatchString(name):
		return errors.ValidationError("invalid "+kind+" name").
			WithContext("name", name).
			Build()
	}
	return nil
}

// writeAtomic writes data to path through a temp file in the same directory.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create temporary file").
			WithContext("path", path).Build()
	}
	tmpPath := tmp.Name()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Chmod(tmpPath, perm)
	}
	if werr == nil {
		werr = os.Rename(tmpPath, path)
	}
	if werr != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapError(werr, errors.CategoryFileSystem, "failed to write file").
			WithContext("path", path).Build()
	}
	return nil
}

// listNames returns the sorted base names of regular files in dir ending in
// ext, with ext removed. A missing directory lists as empty.
func listNames(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to list directory").
			WithContext("path", dir).Build()
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if ext != "" && !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ext))
	}
	slices.Sort(names)
	return names, nil
}

func readFile(kind, name, path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", errors.NotFoundError(kind+" not found").WithContext(kind, name).Build()
	}
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to read "+kind).
			WithContext(kind, name).Build()
	}
	return string(data), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func removeFile(kind, name, path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return errors.NotFoundError(kind+" not found").WithContext(kind, name).Build()
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to delete "+kind).
			WithContext(kind, name).Build()
	}
	return nil
}
