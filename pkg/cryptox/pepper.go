package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	pepperMu sync.RWMutex
	pepper   string
)

// Pepper returns the process wide pepper appended to passwords before
// hashing. Empty until SetPepper or LoadPepperFile is called.
func Pepper() string {
	pepperMu.RLock()
	defer pepperMu.RUnlock()
	return pepper
}

// SetPepper replaces the pepper. Hashes created under a different pepper stop
// verifying.
func SetPepper(p string) {
	pepperMu.Lock()
	defer pepperMu.Unlock()
	pepper = p
}

// LoadPepperFile reads the pepper from path, generating and writing a new one
// when the file does not exist yet.
func LoadPepperFile(path string) error {
	path = filepath.Clean(path)

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		p := strings.TrimSpace(string(raw))
		if p == "" {
			return fmt.Errorf("cryptox: pepper file %s is empty", path)
		}
		SetPepper(p)
		return nil

	case errors.Is(err, fs.ErrNotExist):
		buf := make([]byte, keyLength)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("cryptox: generate pepper: %w", err)
		}
		p := base64.RawURLEncoding.EncodeToString(buf)

		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("cryptox: create pepper dir: %w", err)
		}
		if err := os.WriteFile(path, []byte(p), 0o600); err != nil {
			return fmt.Errorf("cryptox: write pepper: %w", err)
		}
		SetPepper(p)
		return nil

	default:
		return fmt.Errorf("cryptox: read pepper: %w", err)
	}
}
