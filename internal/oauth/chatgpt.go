package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"

	"golang.org/x/oauth2"
)

// ChatGPTCredentials is the OAuth result of a completed authorization flow.
type ChatGPTCredentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	AccountID    string
}

const (
	chatGPTAuthURL  = "https://auth.openai.com/oauth/authorize"
	chatGPTTokenURL = "https://auth.openai.com/oauth/token"
	chatGPTClientID = "app_EMoamEEZ73f0CkXaXp7hrann"
)

func chatGPTOAuthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:    chatGPTClientID,
		RedirectURL: redirectURL,
		Scopes:      []string{"openid", "profile", "email", "offline_access"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  chatGPTAuthURL,
			TokenURL: chatGPTTokenURL,
		},
	}
}

// AuthenticateChatGPT runs a local-loopback PKCE authorization code flow: it
// starts a listener on an ephemeral localhost port, prints the authorize URL
// for the user to open, and waits for the browser redirect carrying the code.
func AuthenticateChatGPT(ctx context.Context) (*ChatGPTCredentials, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("failed to open local callback listener: %w", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	conf := chatGPTOAuthConfig(fmt.Sprintf("http://localhost:%d/callback", port))

	verifier := oauth2.GenerateVerifier()
	state := randomState()

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			errCh <- fmt.Errorf("oauth state mismatch")
			return
		}
		if msg := r.URL.Query().Get("error"); msg != "" {
			http.Error(w, "authorization denied", http.StatusBadRequest)
			errCh <- fmt.Errorf("authorization denied: %s", msg)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			errCh <- fmt.Errorf("no authorization code in callback")
			return
		}
		fmt.Fprint(w, "Authentication complete, you can close this tab and return to the terminal.")
		codeCh <- code
	})

	server := &http.Server{Handler: mux}
	go server.Serve(listener)
	defer server.Close()

	authURL := conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	fmt.Printf("Open this URL to continue:\n\n%s\n\n", authURL)
	openBrowser(authURL)

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	accountID, _ := token.Extra("account_id").(string)
	return &ChatGPTCredentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry.Unix(),
		AccountID:    accountID,
	}, nil
}

// RefreshChatGPTToken exchanges a refresh token for a new access token.
func RefreshChatGPTToken(ctx context.Context, refreshToken string) (*ChatGPTCredentials, error) {
	conf := chatGPTOAuthConfig("")
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	accountID, _ := token.Extra("account_id").(string)
	newRefresh := token.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	return &ChatGPTCredentials{
		AccessToken:  token.AccessToken,
		RefreshToken: newRefresh,
		ExpiresAt:    token.Expiry.Unix(),
		AccountID:    accountID,
	}, nil
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
