package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagewalk/internal/config"
	"github.com/nao1215/pagewalk/internal/schema"
)

//go:embed templates/pagewalk.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file or a source definition template",
		Long: `Init creates a new .pagewalk configuration file in the current directory.

The generated file includes:
- Default settings for concurrency and page limits
- Commented examples for per-source cookies, headers and start pages
- How to register extra source definition files

With --source, init writes a builtin source definition instead, as a starting
point for describing a new site.

Examples:
  # Create .pagewalk in current directory
  pagewalk init

  # Create config file at a specific path
  pagewalk init -o myconfig.yaml

  # Start a new source definition from the example template
  pagewalk init --source example -o mysite.yaml

  # Force overwrite existing file
  pagewalk init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Output file path (default: .pagewalk, or <source>.yaml with --source)")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
	cmd.Flags().String("source", "", "Write this builtin source definition instead of a configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	source, err := cmd.Flags().GetString("source")
	if err != nil {
		return err
	}

	var content []byte
	if source != "" {
		content, err = schema.BuiltinDefinition(source)
		if err != nil {
			return err
		}
		if outputPath == "" {
			outputPath = source + ".yaml"
		}
	} else {
		content, err = configTemplate.ReadFile("templates/pagewalk.yaml")
		if err != nil {
			return fmt.Errorf("failed to read config template: %w", err)
		}
		if outputPath == "" {
			outputPath = config.DefaultConfigFile
		}
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}

	out := cmd.OutOrStdout()
	if source != "" {
		fmt.Fprintf(out, "Created source definition: %s\n", outputPath)
		fmt.Fprintln(out, "\nEdit the name, url and selectors, then check them with:")
		fmt.Fprintf(out, "  pagewalk probe %s <listing page URL>\n", outputPath)
		return nil
	}

	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure per-source settings such as:")
	fmt.Fprintln(out, "  - Cookies and headers")
	fmt.Fprintln(out, "  - Start pages and page limits")
	fmt.Fprintln(out, "  - Item URL patterns to ignore")
	return nil
}
