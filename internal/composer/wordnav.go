package composer

import (
	"runtime"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
)

// platformWordKeyMap overrides textarea's default word-navigation bindings
// to match each platform's terminal convention: macOS terminals typically
// report Option+arrow as a word jump, while Linux/Windows terminals use
// Ctrl+arrow.
func platformWordKeyMap(base textarea.KeyMap) textarea.KeyMap {
	if runtime.GOOS == "darwin" {
		base.WordForward = key.NewBinding(key.WithKeys("alt+right", "alt+f"))
		base.WordBackward = key.NewBinding(key.WithKeys("alt+left", "alt+b"))
		base.DeleteWordForward = key.NewBinding(key.WithKeys("alt+d"))
		base.DeleteWordBackward = key.NewBinding(key.WithKeys("alt+backspace"))
		return base
	}
	base.WordForward = key.NewBinding(key.WithKeys("ctrl+right"))
	base.WordBackward = key.NewBinding(key.WithKeys("ctrl+left"))
	base.DeleteWordForward = key.NewBinding(key.WithKeys("ctrl+delete"))
	base.DeleteWordBackward = key.NewBinding(key.WithKeys("ctrl+backspace", "ctrl+w"))
	return base
}
