// Package secrets stores the daemon's RPC bearer token in the operating
// system's native keyring, falling back to a 0600 file in the config
// directory when no keyring service is available.
package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	service      = "machtimer"
	account      = "rpc-secret"
	fileName     = "rpc.secret"
	fileMode     = 0600
	secretLength = 32
)

// Hooks for tests.
var (
	keyringSet = keyring.Set
	keyringGet = keyring.Get
)

// Load returns the RPC secret, generating and persisting a fresh one on
// first use. configDir is only touched when the keyring is unavailable.
func Load(configDir string) (string, error) {
	if s, err := keyringGet(service, account); err == nil && s != "" {
		return s, nil
	}

	if s, err := readFile(configDir); err == nil && s != "" {
		return s, nil
	}

	s, err := generate()
	if err != nil {
		return "", err
	}
	if err := keyringSet(service, account, s); err == nil {
		return s, nil
	}
	if err := writeFile(configDir, s); err != nil {
		return "", err
	}
	return s, nil
}

func generate() (string, error) {
	buf := make([]byte, secretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func readFile(configDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(configDir, fileName))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// writeFile persists the secret atomically: a rename never leaves a
// half-written token behind.
func writeFile(configDir string, s string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	tmp, err := os.CreateTemp(configDir, fileName+".*")
	if err != nil {
		return fmt.Errorf("write secret: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.WriteString(s + "\n"); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write secret: %w", err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write secret: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("write secret: %w", err)
	}
	if err := os.Rename(name, filepath.Join(configDir, fileName)); err != nil {
		os.Remove(name)
		return fmt.Errorf("write secret: %w", err)
	}
	return nil
}
