package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ludo-technologies/warnscan/internal/config"
	"github.com/ludo-technologies/warnscan/internal/constants"
)

func initCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a warnscan configuration file",
		Long: `Generate a documented warnscan configuration file with sensible defaults.

By default, creates warnscan.yaml in the current directory with the tools of a
generic project. Use --interactive for a guided setup wizard.

Examples:
  # Create warnscan.yaml in current directory
  warnscan init

  # Java project aggregated into a single result
  warnscan init --project java --aggregate

  # Overwrite existing file
  warnscan init --force

  # Generate smaller config with essential options only
  warnscan init --minimal

  # Interactive setup wizard
  warnscan init -i`,
		RunE: runInit,
	}

	cmd.Flags().StringP("config", "c", constants.ConfigFileName,
		"Output path for the config file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing config file")
	cmd.Flags().Bool("minimal", false,
		"Generate minimal config with essential options only")
	cmd.Flags().BoolP("interactive", "i", false,
		"Interactive setup wizard")
	cmd.Flags().String("project", string(config.ProjectTypeGeneric),
		"Project type: generic, java, c, python, ruby, puppet")
	cmd.Flags().String("strictness", string(config.StrictnessStandard),
		"Threshold strictness: relaxed, standard, strict")
	cmd.Flags().Bool("aggregate", false,
		"Aggregate all tool runs into a single result")

	return cmd
}

// initChoices are the answers that shape the generated configuration
type initChoices struct {
	projectType config.ProjectType
	strictness  config.Strictness
	aggregate   bool
	configPath  string
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")
	minimal, _ := cmd.Flags().GetBool("minimal")
	interactive, _ := cmd.Flags().GetBool("interactive")
	project, _ := cmd.Flags().GetString("project")
	strictness, _ := cmd.Flags().GetString("strictness")
	aggregate, _ := cmd.Flags().GetBool("aggregate")

	choices := initChoices{
		projectType: config.ProjectType(project),
		strictness:  config.Strictness(strictness),
		aggregate:   aggregate,
		configPath:  configPath,
	}
	if _, ok := config.GetProjectPresets()[choices.projectType]; !ok {
		return fmt.Errorf("unknown project type %q", project)
	}
	if _, ok := config.GetStrictnessPresets()[choices.strictness]; !ok {
		return fmt.Errorf("unknown strictness %q", strictness)
	}

	// Run interactive setup if requested
	if interactive {
		var err error
		choices, err = runInteractiveSetup(choices)
		if err != nil {
			return err
		}
	}
	configPath = choices.configPath

	// Check if file exists
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
		}
	}

	// Check if parent directory exists
	dir := filepath.Dir(configPath)
	if dir != "." && dir != "" {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", dir)
		}
	}

	var content string
	if minimal {
		content = config.GetMinimalConfigTemplate()
	} else {
		content = config.GetFullConfigTemplate(choices.projectType, choices.strictness, choices.aggregate)
	}

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	displayPath := configPath
	if absPath, err := filepath.Abs(configPath); err == nil {
		displayPath = absPath
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", displayPath)
	fmt.Fprintln(out, "\nRun 'warnscan record' to record the warnings of your build.")

	return nil
}

func runInteractiveSetup(defaults initChoices) (initChoices, error) {
	fmt.Println()
	fmt.Println("warnscan Configuration Setup")
	fmt.Println("============================")
	fmt.Println()

	projectTypes := []struct {
		Label string
		Value config.ProjectType
	}{
		{"Generic (GCC)", config.ProjectTypeGeneric},
		{"Java (javac, JavaDoc, CheckStyle, PMD)", config.ProjectTypeJava},
		{"C/C++ (GCC, Clang, IAR C-STAT)", config.ProjectTypeC},
		{"Python (Pylint)", config.ProjectTypePython},
		{"Ruby on Rails (Brakeman)", config.ProjectTypeRuby},
		{"Puppet (Puppet-Lint)", config.ProjectTypePuppet},
	}

	projectPrompt := promptui.Select{
		Label: "What type of project is this?",
		Items: projectTypes,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "\U0001F449 {{ .Label | cyan }}",
			Inactive: "   {{ .Label | white }}",
			Selected: "\U00002705 {{ .Label | green }}",
		},
	}
	projectIdx, _, err := projectPrompt.Run()
	if err != nil {
		return defaults, fmt.Errorf("project selection cancelled: %w", err)
	}

	fmt.Println()

	strictnessLevels := []struct {
		Label       string
		Description string
		Value       config.Strictness
	}{
		{"Standard (recommended)", "Unstable at 10 issues, failed at 200", config.StrictnessStandard},
		{"Relaxed", "Unstable at 100 issues, never failed", config.StrictnessRelaxed},
		{"Strict", "Any new issue fails the build", config.StrictnessStrict},
	}

	strictnessPrompt := promptui.Select{
		Label: "How strict should the thresholds be?",
		Items: strictnessLevels,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "\U0001F449 {{ .Label | cyan }} - {{ .Description | faint }}",
			Inactive: "   {{ .Label | white }} - {{ .Description | faint }}",
			Selected: "\U00002705 {{ .Label | green }}",
		},
	}
	strictnessIdx, _, err := strictnessPrompt.Run()
	if err != nil {
		return defaults, fmt.Errorf("strictness selection cancelled: %w", err)
	}

	fmt.Println()

	aggregatePrompt := promptui.Prompt{
		Label:     "Aggregate all tools into a single result",
		IsConfirm: true,
	}
	// A declined confirmation is reported as an error
	_, err = aggregatePrompt.Run()
	aggregate := err == nil
	if err != nil && err != promptui.ErrAbort {
		return defaults, fmt.Errorf("aggregation choice cancelled: %w", err)
	}

	fmt.Println()

	outputPrompt := promptui.Prompt{
		Label:   "Output file path",
		Default: defaults.configPath,
	}
	outputPath, err := outputPrompt.Run()
	if err != nil {
		return defaults, fmt.Errorf("output path input cancelled: %w", err)
	}
	if outputPath == "" {
		outputPath = defaults.configPath
	}

	fmt.Println()
	fmt.Printf("Creating %s... ", outputPath)

	return initChoices{
		projectType: projectTypes[projectIdx].Value,
		strictness:  strictnessLevels[strictnessIdx].Value,
		aggregate:   aggregate,
		configPath:  outputPath,
	}, nil
}
