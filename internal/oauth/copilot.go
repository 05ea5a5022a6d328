package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CopilotCredentials is the OAuth result of a completed device-code flow.
type CopilotCredentials struct {
	AccessToken string
}

const (
	copilotClientID      = "Iv1.b507a08c87ecfe98"
	githubDeviceCodeURL  = "https://github.com/login/device/code"
	githubAccessTokenURL = "https://github.com/login/oauth/access_token"
)

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
}

// AuthenticateCopilot runs GitHub's OAuth device authorization flow: it
// requests a device code, prints the verification URL and user code for the
// operator to enter, then polls for the access token.
func AuthenticateCopilot(ctx context.Context) (*CopilotCredentials, error) {
	dc, err := requestDeviceCode(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Printf("Go to %s and enter code: %s\n", dc.VerificationURI, dc.UserCode)
	openBrowser(dc.VerificationURI)

	interval := time.Duration(dc.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(dc.ExpiresIn) * time.Second)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		token, err := pollAccessToken(ctx, dc.DeviceCode)
		if err != nil {
			return nil, err
		}
		if token == "" {
			continue
		}
		return &CopilotCredentials{AccessToken: token}, nil
	}

	return nil, fmt.Errorf("device code expired before authorization completed")
}

func requestDeviceCode(ctx context.Context) (*deviceCodeResponse, error) {
	form := url.Values{
		"client_id": {copilotClientID},
		"scope":     {"read:user"},
	}
	req, err := http.NewRequestWithContext(ctx, "POST", githubDeviceCodeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("device code request failed: %w", err)
	}
	defer resp.Body.Close()

	var dc deviceCodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&dc); err != nil {
		return nil, fmt.Errorf("failed to parse device code response: %w", err)
	}
	if dc.DeviceCode == "" {
		return nil, fmt.Errorf("no device code returned")
	}
	return &dc, nil
}

func pollAccessToken(ctx context.Context, deviceCode string) (string, error) {
	form := url.Values{
		"client_id":   {copilotClientID},
		"device_code": {deviceCode},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
	}
	req, err := http.NewRequestWithContext(ctx, "POST", githubAccessTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("access token poll failed: %w", err)
	}
	defer resp.Body.Close()

	var at accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&at); err != nil {
		return "", fmt.Errorf("failed to parse access token response: %w", err)
	}
	switch at.Error {
	case "", "authorization_pending":
		return at.AccessToken, nil
	case "slow_down":
		return "", nil
	default:
		return "", fmt.Errorf("device authorization failed: %s", at.Error)
	}
}
