//go:build !darwin

package keyring

// Open returns the platform-native secret store. Without a system keychain
// the JSON file fallback is used.
func Open() Store {
	return NewFileStore(defaultSecretsPath())
}
