package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ion-cli/ion/internal/credentials"
	"github.com/ion-cli/ion/internal/oauth"
)

const (
	copilotDefaultModel = "gpt-4.1"
	copilotChatURL      = "https://api.githubcopilot.com/chat/completions"
	copilotTokenURL     = "https://api.github.com/copilot_internal/v2/token"
)

// CopilotProvider implements Provider using the GitHub Copilot chat API.
// Copilot authenticates with a long-lived GitHub OAuth token (obtained via
// device code flow) but talks to its OpenAI-compatible endpoint with a
// short-lived API token exchanged from that OAuth token, refreshed here
// before each request as needed.
type CopilotProvider struct {
	*OpenAICompatProvider

	githubToken string
	apiTokenExp int64
	effort      string
}

// NewCopilotProvider creates a new Copilot provider. If no GitHub OAuth
// credentials are available, it prompts the user through the device code
// flow.
func NewCopilotProvider(model string) (*CopilotProvider, error) {
	if model == "" {
		model = copilotDefaultModel
	}
	actualModel, effort := parseModelEffort(model)

	creds, err := credentials.GetCopilotCredentials()
	if err != nil {
		creds, err = promptForCopilotAuth()
		if err != nil {
			return nil, err
		}
	}

	p := &CopilotProvider{
		githubToken: creds.AccessToken,
		effort:      effort,
		OpenAICompatProvider: NewOpenAICompatProviderFull("", copilotChatURL, "", actualModel, "Copilot", map[string]string{
			"Editor-Version":        "ion/0.1.0",
			"Editor-Plugin-Version": "ion/0.1.0",
			"Copilot-Integration-Id": "vscode-chat",
		}),
	}
	if err := p.ensureAPIToken(context.Background()); err != nil {
		return nil, err
	}
	return p, nil
}

// promptForCopilotAuth prompts the user to authenticate with GitHub Copilot.
func promptForCopilotAuth() (*credentials.CopilotCredentials, error) {
	fmt.Println("Copilot provider requires authentication.")
	fmt.Print("Press Enter to start GitHub device authorization...")

	reader := bufio.NewReader(os.Stdin)
	reader.ReadString('\n')

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	oauthCreds, err := oauth.AuthenticateCopilot(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}

	creds := &credentials.CopilotCredentials{AccessToken: oauthCreds.AccessToken}
	if err := credentials.SaveCopilotCredentials(creds); err != nil {
		return nil, fmt.Errorf("failed to save credentials: %w", err)
	}

	fmt.Println("Authentication successful!")
	return creds, nil
}

type copilotTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// ensureAPIToken exchanges the GitHub OAuth token for a Copilot API token if
// the one currently held has expired or was never fetched.
func (p *CopilotProvider) ensureAPIToken(ctx context.Context) error {
	if p.apiTokenExp > time.Now().Add(60*time.Second).Unix() {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", copilotTokenURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "token "+p.githubToken)
	req.Header.Set("Accept", "application/json")

	resp, err := defaultHTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("copilot token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("copilot token exchange failed (%d)", resp.StatusCode)
	}

	var tok copilotTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("failed to parse copilot token response: %w", err)
	}
	if tok.Token == "" {
		return fmt.Errorf("copilot token exchange returned no token")
	}

	p.apiTokenExp = tok.ExpiresAt
	p.OpenAICompatProvider.apiKey = tok.Token
	return nil
}

func (p *CopilotProvider) Name() string {
	if p.effort != "" {
		return fmt.Sprintf("Copilot (%s, effort=%s)", p.model, p.effort)
	}
	return fmt.Sprintf("Copilot (%s)", p.model)
}

func (p *CopilotProvider) Credential() string {
	return "copilot"
}

func (p *CopilotProvider) Capabilities() Capabilities {
	return Capabilities{
		ToolCalls: true,
	}
}

func (p *CopilotProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	if err := p.ensureAPIToken(ctx); err != nil {
		return nil, fmt.Errorf("token refresh failed: %w (re-run with --provider copilot to re-authenticate)", err)
	}
	return p.OpenAICompatProvider.Stream(ctx, req)
}
