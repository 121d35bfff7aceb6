//go:build darwin

package keyring

import (
	"fmt"
	"os/exec"
	"strings"
)

// Open returns the platform-native secret store.
func Open() Store {
	return securityStore{}
}

// securityStore talks to the macOS login Keychain via the security CLI.
type securityStore struct{}

func (securityStore) Get(service, account string) (string, error) {
	out, err := exec.Command(
		"security", "find-generic-password",
		"-s", service,
		"-a", account,
		"-w",
	).Output()
	if err != nil {
		// security exits non-zero when the item does not exist.
		if _, ok := err.(*exec.ExitError); ok {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("running security find-generic-password: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (securityStore) Set(service, account, value string) error {
	// -U updates the item in place if it already exists.
	out, err := exec.Command(
		"security", "add-generic-password",
		"-s", service,
		"-a", account,
		"-w", value,
		"-U",
	).CombinedOutput()
	if err != nil {
		return fmt.Errorf("running security add-generic-password: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (securityStore) Delete(service, account string) error {
	out, err := exec.Command(
		"security", "delete-generic-password",
		"-s", service,
		"-a", account,
	).CombinedOutput()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok {
			return ErrNotFound
		}
		return fmt.Errorf("running security delete-generic-password: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}
