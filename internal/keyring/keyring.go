// Package keyring stores small secrets outside the application's own files.
// On macOS it shells out to the `security` CLI against the login Keychain;
// elsewhere it falls back to a mode-0600 JSON file under the XDG data dir.
package keyring

import "errors"

// ErrNotFound is returned by Get when no secret exists for the
// service/account pair.
var ErrNotFound = errors.New("keyring: secret not found")

// Store is the secret store capability used by the crypto engine and the
// server's API-token bootstrap.
type Store interface {
	Get(service, account string) (string, error)
	Set(service, account, value string) error
	Delete(service, account string) error
}
