package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ion-cli/ion/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or edit ion's configuration",
	Long: `View or edit your ion configuration (~/.ion/config.toml).

Examples:
  ion config              show the effective configuration
  ion config edit         edit in $EDITOR
  ion config path         print the config file path
  ion config get <key>    print a single value (dotted path)
  ion config set <key> <value>  set a single value`,
	RunE: configShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the configuration file in $EDITOR",
	RunE:  configEdit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE:  configPath,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value by its dotted path.

Examples:
  ion config get default_provider
  ion config get providers.anthropic.model`,
	Args: cobra.ExactArgs(1),
	RunE: configGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by its dotted path.

Examples:
  ion config set default_provider openai
  ion config set providers.anthropic.model claude-opus-4-5
  ion config set chat.max_turns 30`,
	Args: cobra.ExactArgs(2),
	RunE: configSet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

func configShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return err
	}
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "# %s\n\n", path)
	enc := toml.NewEncoder(cmd.OutOrStdout())
	return enc.Encode(cfg)
}

func configEdit(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		editor = "vi"
	}

	editorCmd := exec.Command(editor, path)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	return editorCmd.Run()
}

func configPath(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

// openConfigViper returns a viper instance pointed directly at the config
// file for key-path get/set, mirroring the merge-and-rewrite pattern
// config.SetAgentPreference already uses internally.
func openConfigViper() (*viper.Viper, string, error) {
	path, err := config.GetConfigPath()
	if err != nil {
		return nil, "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create config directory: %w", err)
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to parse config: %w", err)
		}
	}
	return v, path, nil
}

func configGet(cmd *cobra.Command, args []string) error {
	v, _, err := openConfigViper()
	if err != nil {
		return err
	}
	key := args[0]
	if !v.IsSet(key) {
		return fmt.Errorf("key not found: %s", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.Get(key))
	return nil
}

func configSet(cmd *cobra.Command, args []string) error {
	v, path, err := openConfigViper()
	if err != nil {
		return err
	}
	key, value := args[0], args[1]
	v.Set(key, parseConfigValue(value))
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
	return nil
}

// parseConfigValue auto-detects the type of a config set value so booleans
// and numbers are written as their native TOML types, not strings.
func parseConfigValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
