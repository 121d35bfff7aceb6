package api

import (
	"errors"
	"testing"

	"github.com/prompthist/prompthist/internal/keyring"
)

type memSecrets struct {
	data map[string]string
	err  error
}

func newMemSecrets() *memSecrets {
	return &memSecrets{data: make(map[string]string)}
}

func (m *memSecrets) Get(service, account string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.data[service+"/"+account]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (m *memSecrets) Set(service, account, value string) error {
	m.data[service+"/"+account] = value
	return nil
}

func (m *memSecrets) Delete(service, account string) error {
	delete(m.data, service+"/"+account)
	return nil
}

func TestEnsureAPIToken_GeneratesOnce(t *testing.T) {
	secrets := newMemSecrets()

	t1, err := EnsureAPIToken(secrets)
	if err != nil {
		t.Fatalf("EnsureAPIToken: %v", err)
	}
	if t1 == "" {
		t.Fatal("empty token")
	}

	t2, err := EnsureAPIToken(secrets)
	if err != nil {
		t.Fatalf("EnsureAPIToken (second): %v", err)
	}
	if t1 != t2 {
		t.Error("token regenerated instead of reused")
	}
}

func TestEnsureAPIToken_StoreError(t *testing.T) {
	secrets := newMemSecrets()
	secrets.err = errors.New("keychain locked")

	if _, err := EnsureAPIToken(secrets); err == nil {
		t.Error("expected error when the secret store is unreachable")
	}
}
