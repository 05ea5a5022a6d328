package style

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette shared by every renderer (chat model,
// composer, picker, popup, status line).
type Theme struct {
	Primary   lipgloss.Color // main accent (commands, highlights)
	Secondary lipgloss.Color // secondary accent (headers, borders)

	Success lipgloss.Color
	Error   lipgloss.Color
	Warning lipgloss.Color
	Muted   lipgloss.Color
	Text    lipgloss.Color

	Spinner    lipgloss.Color
	Border     lipgloss.Color
	Background lipgloss.Color

	DiffAddBg     lipgloss.Color
	DiffRemoveBg  lipgloss.Color
	DiffContextBg lipgloss.Color

	UserMsgBg lipgloss.Color
}

// DefaultTheme returns the built-in gruvbox palette.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:       lipgloss.Color("#b8bb26"),
		Secondary:     lipgloss.Color("#83a598"),
		Success:       lipgloss.Color("#b8bb26"),
		Error:         lipgloss.Color("#fb4934"),
		Warning:       lipgloss.Color("#fabd2f"),
		Muted:         lipgloss.Color("#928374"),
		Text:          lipgloss.Color("#ebdbb2"),
		Spinner:       lipgloss.Color("#d3869b"),
		Border:        lipgloss.Color("#83a598"),
		Background:    lipgloss.Color(""),
		DiffAddBg:     lipgloss.Color("#32361a"),
		DiffRemoveBg:  lipgloss.Color("#3a1f1d"),
		DiffContextBg: lipgloss.Color("#1d2021"),
		UserMsgBg:     lipgloss.Color("#3c3836"),
	}
}

// Config mirrors the subset of config.Theme that can override the default
// palette (see internal/config).
type Config struct {
	Primary   string
	Secondary string
	Success   string
	Error     string
	Warning   string
	Muted     string
	Text      string
	Spinner   string
	UserMsgBg string
}

// FromConfig applies non-empty overrides from cfg onto a fresh DefaultTheme.
func FromConfig(cfg Config) *Theme {
	t := DefaultTheme()
	if cfg.Primary != "" {
		t.Primary = lipgloss.Color(cfg.Primary)
	}
	if cfg.Secondary != "" {
		t.Secondary = lipgloss.Color(cfg.Secondary)
		t.Border = lipgloss.Color(cfg.Secondary)
	}
	if cfg.Success != "" {
		t.Success = lipgloss.Color(cfg.Success)
	}
	if cfg.Error != "" {
		t.Error = lipgloss.Color(cfg.Error)
	}
	if cfg.Warning != "" {
		t.Warning = lipgloss.Color(cfg.Warning)
	}
	if cfg.Muted != "" {
		t.Muted = lipgloss.Color(cfg.Muted)
	}
	if cfg.Text != "" {
		t.Text = lipgloss.Color(cfg.Text)
	}
	if cfg.Spinner != "" {
		t.Spinner = lipgloss.Color(cfg.Spinner)
	}
	if cfg.UserMsgBg != "" {
		t.UserMsgBg = lipgloss.Color(cfg.UserMsgBg)
	}
	return t
}

var current = DefaultTheme()

// Current returns the active theme.
func Current() *Theme { return current }

// SetCurrent replaces the active theme.
func SetCurrent(t *Theme) { current = t }

// Init sets the active theme from a config override, used once at startup
// after internal/config has loaded.
func Init(cfg Config) { SetCurrent(FromConfig(cfg)) }

// Status indicators shared by pickers and status lines.
const (
	EnabledIcon  = "●"
	DisabledIcon = "○"
	SuccessIcon  = "✓"
	FailIcon     = "✗"
)
