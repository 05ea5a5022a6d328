package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ion-cli/ion/internal/skills"
)

var (
	skillsLocal  bool
	skillsSource string
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Manage skills (portable instruction bundles)",
	Long: `List and manage Agent Skills for ion.

Skills are discovered from ~/.config/ion/skills/, .skills/, and the
Claude Code/Codex/Gemini CLI ecosystem skill directories.

Examples:
  ion skills                   list all available skills
  ion skills --source user     only user-global skills
  ion skills new my-skill      create a new skill from template
  ion skills show my-skill     display skill details`,
	RunE: runSkillsList,
}

var skillsNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new skill from template",
	Args:  cobra.ExactArgs(1),
	RunE:  runSkillsNew,
}

var skillsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Display skill details",
	Args:  cobra.ExactArgs(1),
	RunE:  runSkillsShow,
}

var skillsPathCmd = &cobra.Command{
	Use:   "path [name]",
	Short: "Print skill directory paths, or the path to a specific skill",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSkillsPath,
}

func init() {
	skillsCmd.Flags().BoolVar(&skillsLocal, "local", false, "Show only project-local skills")
	skillsCmd.Flags().StringVar(&skillsSource, "source", "", "Filter by source: local, user, claude, codex, gemini, cursor")
	skillsNewCmd.Flags().BoolVar(&skillsLocal, "local", false, "Create in the project's .skills/ instead of user config")

	rootCmd.AddCommand(skillsCmd)
	skillsCmd.AddCommand(skillsNewCmd)
	skillsCmd.AddCommand(skillsShowCmd)
	skillsCmd.AddCommand(skillsPathCmd)
}

func getSkillsRegistry() (*skills.Registry, error) {
	cfg, err := loadConfigWithSetup()
	if err != nil {
		return nil, err
	}
	return skills.NewRegistry(skills.RegistryConfig{
		AutoInvoke:            cfg.Skills.AutoInvoke,
		MetadataBudgetTokens:  cfg.Skills.MetadataBudgetTokens,
		MaxActive:             cfg.Skills.MaxActive,
		IncludeProjectSkills:  true,
		IncludeEcosystemPaths: cfg.Skills.IncludeEcosystemPaths,
		AlwaysEnabled:         cfg.Skills.AlwaysEnabled,
		NeverAuto:             cfg.Skills.NeverAuto,
	})
}

func parseSkillSource(s string) skills.SkillSource {
	switch strings.ToLower(s) {
	case "local":
		return skills.SourceLocal
	case "user":
		return skills.SourceUser
	case "claude":
		return skills.SourceClaude
	case "codex":
		return skills.SourceCodex
	case "gemini":
		return skills.SourceGemini
	case "cursor":
		return skills.SourceCursor
	default:
		return skills.SkillSource(-1)
	}
}

func runSkillsList(cmd *cobra.Command, args []string) error {
	registry, err := getSkillsRegistry()
	if err != nil {
		return fmt.Errorf("create skill registry: %w", err)
	}

	var list []*skills.Skill
	switch {
	case skillsLocal:
		list, err = registry.ListBySource(skills.SourceLocal)
	case skillsSource != "":
		source := parseSkillSource(skillsSource)
		if source == skills.SkillSource(-1) {
			return fmt.Errorf("unknown source %q (valid: local, user, claude, codex, gemini, cursor)", skillsSource)
		}
		list, err = registry.ListBySource(source)
	default:
		list, err = registry.List()
	}
	if err != nil {
		return fmt.Errorf("list skills: %w", err)
	}

	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no skills found")
		return nil
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	for _, s := range list {
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", s.Name, s.Source.SourceName())
		if s.Description != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", s.Description)
		}
	}
	return nil
}

func runSkillsNew(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := skills.ValidateName(name); err != nil {
		return err
	}

	var baseDir string
	var err error
	if skillsLocal {
		baseDir, err = skills.GetLocalSkillsDir()
	} else {
		baseDir, err = skills.GetUserSkillsDir()
	}
	if err != nil {
		return fmt.Errorf("resolve skills directory: %w", err)
	}

	skillDir := filepath.Join(baseDir, name)
	if _, err := os.Stat(skillDir); err == nil {
		return fmt.Errorf("skill already exists: %s", skillDir)
	}
	if err := skills.CreateSkillDir(baseDir, name); err != nil {
		return fmt.Errorf("create skill: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", skillDir)
	return nil
}

func runSkillsShow(cmd *cobra.Command, args []string) error {
	registry, err := getSkillsRegistry()
	if err != nil {
		return fmt.Errorf("create skill registry: %w", err)
	}
	skill, err := registry.Get(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "skill: %s\n", skill.Name)
	fmt.Fprintf(cmd.OutOrStdout(), "source: %s\n", skill.Source.SourceName())
	if skill.SourcePath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "path: %s\n", skill.SourcePath)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\ndescription: %s\n", skill.Description)
	if len(skill.AllowedTools) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "allowed tools: %s\n", strings.Join(skill.AllowedTools, ", "))
	}
	return nil
}

func runSkillsPath(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		registry, err := getSkillsRegistry()
		if err != nil {
			return fmt.Errorf("create skill registry: %w", err)
		}
		skill, err := registry.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), skill.SourcePath)
		return nil
	}

	localDir, _ := skills.GetLocalSkillsDir()
	userDir, _ := skills.GetUserSkillsDir()
	fmt.Fprintf(cmd.OutOrStdout(), "project-local: %s\n", localDir)
	fmt.Fprintf(cmd.OutOrStdout(), "user-global:   %s\n", userDir)
	return nil
}
