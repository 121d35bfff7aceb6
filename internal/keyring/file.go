package keyring

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps secrets in a JSON file keyed by service then account.
// It is the fallback on platforms without a native keychain and the store
// tests run against on every platform.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore backed by the given path. The file and
// its directory are created lazily on first Set.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func defaultSecretsPath() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "prompthist", "secrets.json")
}

func (f *FileStore) load() (map[string]map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return make(map[string]map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading secrets file: %w", err)
	}
	var secrets map[string]map[string]string
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("parsing secrets file: %w", err)
	}
	if secrets == nil {
		secrets = make(map[string]map[string]string)
	}
	return secrets, nil
}

func (f *FileStore) save(secrets map[string]map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating secrets dir: %w", err)
	}
	out, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, out, 0o600)
}

func (f *FileStore) Get(service, account string) (string, error) {
	secrets, err := f.load()
	if err != nil {
		return "", err
	}
	val, ok := secrets[service][account]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (f *FileStore) Set(service, account, value string) error {
	secrets, err := f.load()
	if err != nil {
		return err
	}
	if secrets[service] == nil {
		secrets[service] = make(map[string]string)
	}
	secrets[service][account] = value
	return f.save(secrets)
}

func (f *FileStore) Delete(service, account string) error {
	secrets, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := secrets[service][account]; !ok {
		return ErrNotFound
	}
	delete(secrets[service], account)
	if len(secrets[service]) == 0 {
		delete(secrets, service)
	}
	return f.save(secrets)
}
