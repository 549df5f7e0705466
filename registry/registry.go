// Package registry tracks the profiles available in the per-user config
// directory. It holds only names and file paths; profiles themselves are
// loaded on demand by the caller and owned by the session.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	c "git.cmcode.dev/cmcode/budget-tracker/constants"
	"git.cmcode.dev/cmcode/budget-tracker/profile"

	"github.com/adrg/xdg"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var (
	// ErrDuplicateProfile is returned when creating or renaming to a
	// name that is already registered.
	ErrDuplicateProfile = errors.New("a profile with that name already exists")

	// ErrInvalidProfileName is returned for empty names, overly long
	// names, and names that would escape the config directory.
	ErrInvalidProfileName = errors.New("invalid profile name")
)

// DefaultDir resolves the per-user config directory for this
// application per platform convention.
func DefaultDir() string {
	return filepath.Join(xdg.ConfigHome, c.AppName)
}

// Registry maps profile names to their file paths. Construct one with
// New and pass it into the session; there is no global instance.
type Registry struct {
	dir      string
	log      zerolog.Logger
	profiles map[string]string
}

// index is the on-disk profile index, listing known profile file names
// by profile name.
type index struct {
	Profiles map[string]string `yaml:"profiles"`
}

// New scans dir for profile files and reconciles them with the index
// file. Files present on disk but missing from the index are adopted;
// index rows whose files have disappeared are dropped with a warning.
func New(dir string, log zerolog.Logger) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to make all directories %v: %w", dir, err)
	}

	r := &Registry{
		dir:      dir,
		log:      log,
		profiles: make(map[string]string),
	}

	idx, err := r.readIndex()
	if err != nil {
		return nil, err
	}

	changed := false

	for name, file := range idx.Profiles {
		p := filepath.Join(dir, file)
		if _, err := os.Stat(p); err != nil {
			r.log.Warn().Str("profile", name).Str("file", file).Msg("dropping indexed profile, file is missing")

			changed = true

			continue
		}

		r.profiles[name] = p
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %v: %w", dir, err)
	}

	for _, de := range entries {
		name := de.Name()
		if de.IsDir() || name == c.IndexFile || filepath.Ext(name) != c.ProfileFileExt {
			continue
		}

		stem := strings.TrimSuffix(name, c.ProfileFileExt)
		if _, ok := r.profiles[stem]; ok {
			continue
		}

		r.log.Info().Str("profile", stem).Msg("adopting unindexed profile file")

		r.profiles[stem] = filepath.Join(dir, name)
		changed = true
	}

	if changed {
		if err := r.writeIndex(); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Dir returns the directory this registry manages.
func (r *Registry) Dir() string {
	return r.dir
}

// List returns the known profile names in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Path returns the file path for the named profile.
func (r *Registry) Path(name string) (string, error) {
	p, ok := r.profiles[name]
	if !ok {
		return "", fmt.Errorf("%w: %v", profile.ErrProfileNotFound, name)
	}

	return p, nil
}

// Create registers a new empty profile, persists it and returns it.
func (r *Registry) Create(name string) (*profile.Profile, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	if _, ok := r.profiles[name]; ok {
		return nil, fmt.Errorf("%w: %v", ErrDuplicateProfile, name)
	}

	p := profile.New(name)
	path := filepath.Join(r.dir, name+c.ProfileFileExt)

	if err := profile.Save(p, path); err != nil {
		return nil, err
	}

	r.profiles[name] = path

	if err := r.writeIndex(); err != nil {
		return nil, err
	}

	r.log.Info().Str("profile", name).Str("path", path).Msg("created profile")

	return p, nil
}

// Rename moves a profile to a new name, updating its file, its display
// name and the index.
func (r *Registry) Rename(oldName, newName string) error {
	if err := validateName(newName); err != nil {
		return err
	}

	oldPath, ok := r.profiles[oldName]
	if !ok {
		return fmt.Errorf("%w: %v", profile.ErrProfileNotFound, oldName)
	}

	if _, ok := r.profiles[newName]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateProfile, newName)
	}

	p, warnings, err := profile.Load(oldPath)
	if err != nil {
		return err
	}

	for _, w := range warnings {
		r.log.Warn().Str("profile", oldName).Msg(w)
	}

	p.Name = newName
	newPath := filepath.Join(r.dir, newName+c.ProfileFileExt)

	if err := profile.Save(p, newPath); err != nil {
		return err
	}

	if err := os.Remove(oldPath); err != nil {
		return fmt.Errorf("failed to remove %v: %w", oldPath, err)
	}

	delete(r.profiles, oldName)
	r.profiles[newName] = newPath

	return r.writeIndex()
}

// Delete removes the named profile's file and index row.
func (r *Registry) Delete(name string) error {
	path, ok := r.profiles[name]
	if !ok {
		return fmt.Errorf("%w: %v", profile.ErrProfileNotFound, name)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %v: %w", path, err)
	}

	delete(r.profiles, name)

	return r.writeIndex()
}

// Search returns profile names fuzzy-matching the query, best match
// first. An empty query returns every profile.
func (r *Registry) Search(query string) []string {
	if query == "" {
		return r.List()
	}

	ranks := fuzzy.RankFindNormalizedFold(query, r.List())
	sort.Sort(ranks)

	names := make([]string, 0, len(ranks))
	for _, rank := range ranks {
		names = append(names, rank.Target)
	}

	return names
}

func (r *Registry) readIndex() (index, error) {
	idx := index{Profiles: make(map[string]string)}

	b, err := os.ReadFile(filepath.Join(r.dir, c.IndexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return idx, nil
		}

		return idx, fmt.Errorf("failed to read profile index: %w", err)
	}

	if err := yaml.Unmarshal(b, &idx); err != nil {
		// a broken index is rebuilt from the directory scan
		r.log.Warn().Err(err).Msg("profile index is unreadable, rebuilding")

		return index{Profiles: make(map[string]string)}, nil
	}

	if idx.Profiles == nil {
		idx.Profiles = make(map[string]string)
	}

	return idx, nil
}

func (r *Registry) writeIndex() error {
	idx := index{Profiles: make(map[string]string, len(r.profiles))}
	for name, path := range r.profiles {
		idx.Profiles[name] = filepath.Base(path)
	}

	b, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("failed to marshal profile index: %w", err)
	}

	if err := profile.WriteFileAtomic(filepath.Join(r.dir, c.IndexFile), b); err != nil {
		return fmt.Errorf("failed to write profile index: %w", err)
	}

	return nil
}

func validateName(name string) error {
	if name == "" || len(name) > c.MaxProfileNameLength {
		return fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}

	if strings.ContainsAny(name, `/\`) || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}

	return nil
}
