package api

import (
	"errors"

	"github.com/prompthist/prompthist/internal/apperr"
	"github.com/prompthist/prompthist/internal/crypto"
	"github.com/prompthist/prompthist/internal/keyring"
)

const tokenAccount = "api_token"

// EnsureAPIToken returns the persistent bearer token, generating and storing
// one on first use. The token lives next to the encryption key in the
// platform secret store.
func EnsureAPIToken(secrets keyring.Store) (string, error) {
	token, err := secrets.Get(crypto.Service, tokenAccount)
	if err == nil && token != "" {
		return token, nil
	}
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return "", apperr.Wrap(apperr.KindSecretStore, err, "loading api token")
	}

	token, err = crypto.GenerateSecureToken()
	if err != nil {
		return "", err
	}
	if err := secrets.Set(crypto.Service, tokenAccount, token); err != nil {
		return "", apperr.Wrap(apperr.KindSecretStore, err, "storing api token")
	}
	return token, nil
}
