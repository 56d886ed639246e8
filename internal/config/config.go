package config

import "os"

const (
	DefaultVaultPath = "~/Documents/notes"
	DefaultAPIURL    = "https://api.noteferry.dev"
)

// VaultPath returns the vault path from NOTEFERRY_VAULT,
// falling back to DefaultVaultPath.
func VaultPath() string {
	if env := os.Getenv("NOTEFERRY_VAULT"); env != "" {
		return env
	}
	return DefaultVaultPath
}

// APIURL returns the remote service URL from NOTEFERRY_API_URL,
// falling back to DefaultAPIURL.
func APIURL() string {
	if env := os.Getenv("NOTEFERRY_API_URL"); env != "" {
		return env
	}
	return DefaultAPIURL
}

// Token returns the API token from NOTEFERRY_TOKEN. Credential storage
// beyond the environment is the caller's concern.
func Token() string {
	return os.Getenv("NOTEFERRY_TOKEN")
}
