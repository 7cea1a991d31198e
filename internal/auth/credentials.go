package auth

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// CredentialsFile represents the ~/.lanemeta/credentials.json file.
type CredentialsFile struct {
	Version int                       `json:"version"`
	Hosts   map[string]HostCredential `json:"hosts"`
}

// HostCredential holds the token used for one API host.
type HostCredential struct {
	Token string `json:"token"`
}

// DefaultCredentialsPath returns ~/.lanemeta/credentials.json.
func DefaultCredentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".lanemeta", "credentials.json"), nil
}

// LoadCredentials reads and parses a credentials file at the given path.
// If the file does not exist, it returns an empty CredentialsFile with
// Version=1 and an empty Hosts map (not an error).
func LoadCredentials(path string) (*CredentialsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &CredentialsFile{
				Version: 1,
				Hosts:   make(map[string]HostCredential),
			}, nil
		}
		return nil, err
	}

	var creds CredentialsFile
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	if creds.Hosts == nil {
		creds.Hosts = make(map[string]HostCredential)
	}
	return &creds, nil
}

// SaveCredentials writes the credentials to the given path. It creates
// the parent directory with 0700 permissions if needed, and writes the
// file with 0600 permissions (owner-only read/write).
func SaveCredentials(path string, creds *CredentialsFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// GetToken returns the token stored for host, or "" when there is none.
func GetToken(creds *CredentialsFile, host string) string {
	if creds == nil || creds.Hosts == nil {
		return ""
	}
	return creds.Hosts[host].Token
}

// SetToken stores a token for host, initializing the Hosts map if needed.
func SetToken(creds *CredentialsFile, host, token string) {
	if creds.Hosts == nil {
		creds.Hosts = make(map[string]HostCredential)
	}
	creds.Hosts[host] = HostCredential{Token: token}
}
