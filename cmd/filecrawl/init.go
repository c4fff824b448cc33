package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/filecrawl/internal/config"
)

//go:embed templates/filecrawl.yaml templates/categories.yaml
var templates embed.FS

const (
	siteTemplate     = "templates/filecrawl.yaml"
	categoryTemplate = "templates/categories.yaml"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a filecrawl settings or category file",
		Long: `Init writes a commented template for the per-site settings file
(.filecrawl.yaml in the current directory) or, with --categories, for the
extension category file in the XDG config directory.

Examples:
  # Create .filecrawl.yaml in the current directory
  filecrawl init

  # Create the category file
  filecrawl init --categories

  # Create a settings file at a specific path, overwriting it
  filecrawl init -o ~/.filecrawl.yaml -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", "",
		"Output file path (default: .filecrawl.yaml, or the category file with --categories)")
	cmd.Flags().Bool("categories", false,
		"Create the extension category file instead of the settings file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite an existing file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	categories, err := cmd.Flags().GetBool("categories")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	template := siteTemplate
	if categories {
		template = categoryTemplate
	}
	if outputPath == "" {
		outputPath = config.DefaultConfigFile
		if categories {
			outputPath = config.DefaultCategoryFile()
		}
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := templates.ReadFile(template)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", outputPath)
	if categories {
		fmt.Fprintln(out, "\nDefine categories there or with 'filecrawl categories add'.")
		return nil
	}
	fmt.Fprintln(out, "\nEdit this file to configure site-specific settings such as:")
	fmt.Fprintln(out, "  - Authentication cookies and headers")
	fmt.Fprintln(out, "  - Allow-list, crawl depth and page budget per site")
	fmt.Fprintln(out, "  - Request delay and robots.txt handling")
	return nil
}
