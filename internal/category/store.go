package category

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/filecrawl/internal/crawler"
)

// CurrentVersion is the category file format written by Save.
const CurrentVersion = 1

var (
	validName      = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	validExtension = regexp.MustCompile(`^\.[a-z0-9][a-z0-9_+-]*$`)
)

// File is the on-disk form of the user's categories.
type File struct {
	// Version is the file format version.
	Version int `yaml:"version"`

	// Categories maps a category name to its extensions.
	Categories map[string][]string `yaml:"categories"`
}

// Category is a named extension set.
type Category struct {
	Name       string
	Extensions []string
	Builtin    bool
	// Custom is true when the category file defines or overrides it.
	Custom bool
}

// Store resolves extension expressions against the built-in categories
// and the user's category file. The file is read once by Load; changes are
// kept in memory until Save.
type Store struct {
	path string
	user map[string][]string
}

// NewStore returns a store with only the built-in categories. Save writes
// to path.
func NewStore(path string) *Store {
	return &Store{path: path, user: make(map[string][]string)}
}

// Load reads the category file at path. A missing file yields a store
// with only the built-in categories.
func Load(path string) (*Store, error) {
	s := NewStore(path)

	data, err := os.ReadFile(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read category file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if f.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d (this build supports %d)", ErrUnsupportedVersion, f.Version, CurrentVersion)
	}

	for name, exts := range f.Categories {
		key, err := normalizeName(name)
		if err != nil {
			return nil, fmt.Errorf("%s: category %q: %w", path, name, err)
		}
		normalized, err := normalizeExtensions(exts)
		if err != nil {
			return nil, fmt.Errorf("%s: category %q: %w", path, name, err)
		}
		s.user[key] = normalized
	}
	return s, nil
}

// Path returns the file the store saves to.
func (s *Store) Path() string {
	return s.path
}

// Lookup returns the extensions of a category. A user definition shadows
// the built-in one of the same name.
func (s *Store) Lookup(name string) ([]string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if exts, ok := s.user[key]; ok {
		return exts, true
	}
	exts, ok := builtins[key]
	return exts, ok
}

// Categories lists every category sorted by name.
func (s *Store) Categories() []Category {
	names := make(map[string]struct{}, len(builtins)+len(s.user))
	for name := range builtins {
		names[name] = struct{}{}
	}
	for name := range s.user {
		names[name] = struct{}{}
	}

	out := make([]Category, 0, len(names))
	for name := range names {
		exts, _ := s.Lookup(name)
		_, custom := s.user[name]
		sorted := slices.Clone(exts)
		sort.Strings(sorted)
		out = append(out, Category{
			Name:       name,
			Extensions: sorted,
			Builtin:    IsBuiltin(name),
			Custom:     custom,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve turns a comma-separated expression of category names and
// extensions into an allow-list. Extensions may be given with or without
// the leading dot; matching is case-insensitive.
//
// An empty expression selects the archives and images categories. An
// expression that names only empty categories, such as "all", yields the
// empty set, which allows every extension.
func (s *Store) Resolve(expr string) (crawler.ExtensionSet, error) {
	set := crawler.NewExtensionSet()
	named := false

	for _, part := range strings.Split(expr, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		named = true

		if exts, ok := s.Lookup(part); ok && !strings.HasPrefix(part, ".") {
			for _, ext := range exts {
				set[ext] = struct{}{}
			}
			continue
		}

		ext := crawler.NormalizeExtension(part)
		if !validExtension.MatchString(ext) {
			return nil, fmt.Errorf("%w: %q is neither a category nor an extension", ErrInvalidExtension, part)
		}
		set[ext] = struct{}{}
	}

	if !named {
		return s.defaults(), nil
	}
	return set, nil
}

func (s *Store) defaults() crawler.ExtensionSet {
	set := crawler.NewExtensionSet()
	for _, name := range defaultCategories {
		exts, _ := s.Lookup(name)
		for _, ext := range exts {
			set[ext] = struct{}{}
		}
	}
	return set
}

// Add defines a user category, replacing any existing definition of name.
// When name is a built-in it is shadowed until removed from the file.
func (s *Store) Add(name string, exts ...string) error {
	key, err := normalizeName(name)
	if err != nil {
		return err
	}
	if len(exts) == 0 {
		return ErrNoExtensions
	}
	normalized, err := normalizeExtensions(exts)
	if err != nil {
		return err
	}
	if len(normalized) == 0 {
		return ErrNoExtensions
	}
	s.user[key] = normalized
	return nil
}

// Remove deletes a user category. A built-in that was shadowed by a user
// definition reverts to its built-in extensions.
func (s *Store) Remove(name string) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if _, ok := s.user[key]; ok {
		delete(s.user, key)
		return nil
	}
	if IsBuiltin(key) {
		return fmt.Errorf("%w: %s", ErrBuiltinCategory, key)
	}
	return fmt.Errorf("%w: %s", ErrUnknownCategory, key)
}

// Save writes the user categories to the store's path, creating parent
// directories as needed.
func (s *Store) Save() error {
	f := File{Version: CurrentVersion, Categories: s.user}
	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("create category directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write category file: %w", err)
	}
	return nil
}

func normalizeName(name string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if !validName.MatchString(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return key, nil
}

// normalizeExtensions lowercases, dots, validates and deduplicates exts.
func normalizeExtensions(exts []string) ([]string, error) {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		ext := crawler.NormalizeExtension(e)
		if ext == "" {
			continue
		}
		if !validExtension.MatchString(ext) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidExtension, e)
		}
		if !slices.Contains(out, ext) {
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out, nil
}
