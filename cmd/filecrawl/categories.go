package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/filecrawl/internal/category"
	"github.com/nao1215/filecrawl/internal/config"
)

// NewCategoriesCmd creates the categories command and its subcommands.
func NewCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"presets"},
		Short:   "List and edit extension categories",
		Long: `Categories are named extension sets that can be used with
'filecrawl crawl --extensions'. Built-in categories can be overridden by
defining a category of the same name; removing the override restores the
built-in set.

Examples:
  # List every category
  filecrawl categories

  # Define a category for e-books
  filecrawl categories add ebooks .epub .mobi .azw3

  # See what an expression resolves to
  filecrawl categories show ebooks,.pdf

  # Remove a user category
  filecrawl categories remove ebooks`,
		Args: cobra.NoArgs,
		RunE: runCategoriesList,
	}

	cmd.PersistentFlags().String("categories", "",
		"Extension category file (default: $XDG_CONFIG_HOME/filecrawl/categories.yaml)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every category",
		Args:  cobra.NoArgs,
		RunE:  runCategoriesList,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <extension>...",
		Short: "Define or replace a category",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runCategoriesAdd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a user category",
		Args:  cobra.ExactArgs(1),
		RunE:  runCategoriesRemove,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show <expression>",
		Short: "Show the extensions an allow-list expression selects",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCategoriesShow,
	})

	return cmd
}

// loadCategoryStore loads the category file named by the --categories flag.
func loadCategoryStore(cmd *cobra.Command) (*category.Store, error) {
	path, err := cmd.Flags().GetString("categories")
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = config.DefaultCategoryFile()
	}
	store, err := category.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return store, nil
}

// runCategoriesList prints every category.
func runCategoriesList(cmd *cobra.Command, _ []string) error {
	store, err := loadCategoryStore(cmd)
	if err != nil {
		return err
	}
	printCategories(cmd.OutOrStdout(), store.Categories())
	return nil
}

// printCategories writes one line per category.
func printCategories(w io.Writer, list []category.Category) {
	title := cases.Title(language.English)

	fmt.Fprintln(w, "Available extension categories:")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	for _, c := range list {
		exts := "(matches any file extension)"
		if len(c.Extensions) > 0 {
			exts = strings.Join(c.Extensions, ", ")
		}
		marker := ""
		switch {
		case c.Custom && c.Builtin:
			marker = " [overridden]"
		case c.Custom:
			marker = " [custom]"
		}
		fmt.Fprintf(w, "  %-12s -> %s%s\n", title.String(c.Name), exts, marker)
	}
	fmt.Fprintln(w)
}

// runCategoriesAdd defines a category and saves the file.
func runCategoriesAdd(cmd *cobra.Command, args []string) error {
	store, err := loadCategoryStore(cmd)
	if err != nil {
		return err
	}

	var exts []string
	for _, arg := range args[1:] {
		exts = append(exts, strings.Split(arg, ",")...)
	}
	if err := store.Add(args[0], exts...); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}

	name := strings.ToLower(strings.TrimSpace(args[0]))
	saved, _ := store.Lookup(name)
	fmt.Fprintf(cmd.OutOrStdout(), "Saved category %q (%s) to %s\n", name, strings.Join(saved, ", "), store.Path())
	return nil
}

// runCategoriesRemove removes a user category and saves the file.
func runCategoriesRemove(cmd *cobra.Command, args []string) error {
	store, err := loadCategoryStore(cmd)
	if err != nil {
		return err
	}
	if err := store.Remove(args[0]); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed category %q from %s\n", strings.ToLower(strings.TrimSpace(args[0])), store.Path())
	return nil
}

// runCategoriesShow prints the allow-list an expression resolves to.
func runCategoriesShow(cmd *cobra.Command, args []string) error {
	store, err := loadCategoryStore(cmd)
	if err != nil {
		return err
	}
	expr := ""
	if len(args) > 0 {
		expr = args[0]
	}
	set, err := store.Resolve(expr)
	if err != nil {
		return err
	}
	if set.AllowsAll() {
		fmt.Fprintln(cmd.OutOrStdout(), "(any extension)")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(set.Sorted(), " "))
	return nil
}
