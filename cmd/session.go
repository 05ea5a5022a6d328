package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ion-cli/ion/internal/config"
	"github.com/ion-cli/ion/internal/llm"
	"github.com/ion-cli/ion/internal/search"
	"github.com/ion-cli/ion/internal/session"
)

// loadConfigWithSetup loads config.toml. Load() seeds every field from
// config.GetDefaults() via viper before the file (if any) is merged in, so
// a first run with no ~/.ion/config.toml still produces a usable config;
// callers that want credentials configured interactively should check
// config.NeedsSetup() themselves and prompt before calling this.
func loadConfigWithSetup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// resolveCWD returns --cwd if set, else the process working directory.
func resolveCWD() (string, error) {
	if flags.CWD != "" {
		return flags.CWD, nil
	}
	return os.Getwd()
}

// initSessionStore opens the session store scoped to cwd, honoring
// --no-session by returning a session.NoopStore so callers can treat both
// paths identically.
func initSessionStore(cfg *config.Config) (session.Store, error) {
	cwd, err := resolveCWD()
	if err != nil {
		return nil, err
	}
	if flags.NoSession || !cfg.Sessions.Enabled {
		return &session.NoopStore{}, nil
	}
	storeCfg := session.Config{
		Enabled:    true,
		MaxAgeDays: cfg.Sessions.MaxAgeDays,
		MaxCount:   cfg.Sessions.MaxCount,
		WorkingDir: cwd,
	}
	if cfg.Sessions.Path != "" {
		storeCfg.Home = cfg.Sessions.Path
	}
	store, err := session.NewStore(storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	return store, nil
}

// resolveProviderModel applies the -m flag over config.Chat.Provider/Model,
// falling back to cfg.DefaultProvider.
func resolveProviderModel(cfg *config.Config) (provider, model string) {
	provider, model = cfg.Chat.Provider, cfg.Chat.Model
	if provider == "" {
		provider = cfg.DefaultProvider
	}
	if flags.Model != "" {
		p, m := parseModelFlag(flags.Model)
		provider = p
		if m != "" {
			model = m
		}
	}
	if model == "" {
		if pc, ok := cfg.Providers[provider]; ok {
			model = pc.Model
		}
	}
	return provider, model
}

// newSessionFor creates a fresh session.Session record for cwd under the
// resolved provider/model, ready to be persisted via store.Create.
func newSessionFor(cwd, provider, model string) *session.Session {
	return &session.Session{
		ID:       session.NewID(),
		Provider: provider,
		Model:    model,
		CWD:      cwd,
		Mode:     session.ModeChat,
	}
}

// resolveMaxTurns applies --max-turns over cfg.Chat.MaxTurns, falling back
// to def when neither is set to a positive value.
func resolveMaxTurns(cfg *config.Config, def int) int {
	if flags.MaxTurns > 0 {
		return flags.MaxTurns
	}
	if cfg.Chat.MaxTurns > 0 {
		return cfg.Chat.MaxTurns
	}
	return def
}

// buildEngine wires an llm.Engine against the resolved provider, registering
// the web-search and read-url tools unless --no-tools is set. Local
// filesystem and shell tools are not registered on this engine.
func buildEngine(cfg *config.Config) (llm.Provider, *llm.Engine, error) {
	provider, err := llm.NewProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	registry := llm.NewToolRegistry()
	if !flags.NoTools {
		searcher, err := search.NewSearcher(cfg.Search)
		if err != nil {
			searcher = search.NewDuckDuckGoLite(nil)
		}
		registry.Register(llm.NewWebSearchTool(searcher))
		registry.Register(llm.NewReadURLTool())
	}
	engine := llm.NewEngine(provider, registry)
	return provider, engine, nil
}

// loadMostRecentSession returns the most recently updated session in store
// (already scoped to a working directory via its own Config.WorkingDir), or
// nil if none exists.
func loadMostRecentSession(ctx context.Context, store session.Store) (*session.Session, error) {
	summaries, err := store.List(ctx, session.ListOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, nil
	}
	return store.Get(ctx, summaries[0].ID)
}
