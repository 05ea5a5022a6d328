package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ion-cli/ion/internal/oauth"
)

// ChatGPTCredentials holds the OAuth tokens persisted for the ChatGPT
// backend provider, stored at ~/.ion/chatgpt_creds.json.
type ChatGPTCredentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	AccountID    string `json:"account_id"`
}

// IsExpired reports whether the access token has expired or is within its
// last minute of validity.
func (c *ChatGPTCredentials) IsExpired() bool {
	if c.ExpiresAt == 0 {
		return false
	}
	return time.Now().Unix() >= c.ExpiresAt-60
}

func chatGPTCredsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".ion", "chatgpt_creds.json"), nil
}

// GetChatGPTCredentials loads previously saved ChatGPT OAuth credentials.
func GetChatGPTCredentials() (*ChatGPTCredentials, error) {
	path, err := chatGPTCredsPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("no saved ChatGPT credentials: %w", err)
	}
	var creds ChatGPTCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse ChatGPT credentials: %w", err)
	}
	if creds.AccessToken == "" {
		return nil, fmt.Errorf("ChatGPT credentials file has no access token")
	}
	return &creds, nil
}

// SaveChatGPTCredentials persists ChatGPT OAuth credentials for reuse.
func SaveChatGPTCredentials(creds *ChatGPTCredentials) error {
	path, err := chatGPTCredsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ChatGPT credentials: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// RefreshChatGPTCredentials exchanges the refresh token for a new access
// token and persists the result in place.
func RefreshChatGPTCredentials(creds *ChatGPTCredentials) error {
	if creds.RefreshToken == "" {
		return fmt.Errorf("no refresh token available, re-authentication required")
	}
	refreshed, err := oauth.RefreshChatGPTToken(context.Background(), creds.RefreshToken)
	if err != nil {
		return err
	}
	creds.AccessToken = refreshed.AccessToken
	if refreshed.RefreshToken != "" {
		creds.RefreshToken = refreshed.RefreshToken
	}
	creds.ExpiresAt = refreshed.ExpiresAt
	if refreshed.AccountID != "" {
		creds.AccountID = refreshed.AccountID
	}
	return SaveChatGPTCredentials(creds)
}
