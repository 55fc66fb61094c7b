package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/Pflanzmann/SharkShiver/internal/crypto"
)

// readJSON reads path into out; a missing file leaves out untouched.
func readJSON(path string, out any) error {
	b, err := readFile(path)
	if err != nil || b == nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// readFile reads the file at path; a missing file yields nil, nil.
func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return b, err
}

// writeJSON writes v as indented JSON, atomically.
func writeJSON(path string, v any, mode os.FileMode) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, b, mode)
}

// readSealedJSON opens a sealed file and decodes it into out. A missing file
// leaves out untouched.
func readSealedJSON(path, passphrase, label string, out any) error {
	b, err := readFile(path)
	if err != nil || b == nil {
		return err
	}
	raw, err := open(passphrase, label, b)
	if err != nil {
		return err
	}
	defer crypto.Wipe(raw)
	return json.Unmarshal(raw, out)
}

// writeSealedJSON encodes v, seals it and writes it atomically with 0600.
func writeSealedJSON(path, passphrase, label string, v any, kp kdfParams) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	defer crypto.Wipe(raw)
	b, err := seal(passphrase, label, raw, kp)
	if err != nil {
		return err
	}
	return writeFile(path, b, 0o600)
}

// writeFile writes bytes to a temp file in the target directory, then
// renames it over path.
func writeFile(path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
