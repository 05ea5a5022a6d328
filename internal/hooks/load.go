package hooks

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ion-cli/ion/internal/obs"
)

// fileFormat is the on-disk shape of a hooks.yaml file.
type fileFormat struct {
	Hooks []Definition `yaml:"hooks"`
}

// Load reads user-scoped hooks from configDir/hooks.yaml and, if present,
// project-scoped hooks from cwd/.ion/hooks.yaml. Project-scoped
// definitions are parsed (so a malformed file is still reported) and have
// their commands stripped, and they are left out of the returned set: only
// user-scoped hooks may execute arbitrary commands, since project config
// ships inside a repository that may not be trusted.
func Load(configDir, cwd string) ([]Definition, error) {
	var defs []Definition

	userDefs, err := loadFile(filepath.Join(configDir, "hooks.yaml"), ScopeUser)
	if err != nil {
		return nil, err
	}
	defs = append(defs, userDefs...)

	projectDefs, err := loadFile(filepath.Join(cwd, ".ion", "hooks.yaml"), ScopeProject)
	if err != nil {
		return nil, err
	}
	if len(projectDefs) > 0 {
		obs.For("hooks").Warn().
			Int("count", len(projectDefs)).
			Str("path", filepath.Join(cwd, ".ion", "hooks.yaml")).
			Msg("project-scoped hooks declare commands; stripping before activation")
	}

	return defs, nil
}

func loadFile(path string, scope Scope) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	for i := range f.Hooks {
		f.Hooks[i].Scope = scope
		if scope == ScopeProject {
			// Stripped: project-scoped hooks can declare matchers for
			// validation/auditing but never run a command.
			f.Hooks[i].Command = ""
		}
	}
	return f.Hooks, nil
}
