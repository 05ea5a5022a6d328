package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// CopilotCredentials holds the GitHub OAuth token persisted for the Copilot
// provider, stored at ~/.ion/copilot_creds.json. GitHub's device-flow tokens
// don't expire on a fixed schedule, so there's no refresh path: a revoked or
// rejected token just sends the user back through AuthenticateCopilot.
type CopilotCredentials struct {
	AccessToken string `json:"access_token"`
}

func copilotCredsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".ion", "copilot_creds.json"), nil
}

// GetCopilotCredentials loads a previously saved Copilot OAuth token.
func GetCopilotCredentials() (*CopilotCredentials, error) {
	path, err := copilotCredsPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no saved Copilot credentials: %w", err)
	}
	var creds CopilotCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse Copilot credentials: %w", err)
	}
	if creds.AccessToken == "" {
		return nil, fmt.Errorf("Copilot credentials file has no access token")
	}
	return &creds, nil
}

// SaveCopilotCredentials persists a Copilot OAuth token for reuse.
func SaveCopilotCredentials(creds *CopilotCredentials) error {
	path, err := copilotCredsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal Copilot credentials: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
