package profile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.cmcode.dev/cmcode/budget-tracker/models"
	"git.cmcode.dev/cmcode/budget-tracker/money"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// document mirrors Profile for deserialization, with entries kept as raw
// nodes so that a single malformed entry can be skipped without failing
// the whole load.
type document struct {
	Name           string       `yaml:"name"`
	CreatedAt      time.Time    `yaml:"createdAt"`
	InitialBalance money.Amount `yaml:"initialBalance"`
	Entries        []yaml.Node  `yaml:"entries"`
}

// Load reads a profile from the given path. Individually malformed
// entries are skipped and reported in the returned warnings; the load
// only fails outright when the file is missing (ErrProfileNotFound) or
// the document itself cannot be parsed (ErrCorruptProfile).
func Load(path string) (*Profile, []string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %v", ErrProfileNotFound, path)
		}

		return nil, nil, fmt.Errorf("failed to read profile %v: %w", path, err)
	}

	var doc document

	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v: %v", ErrCorruptProfile, path, err.Error())
	}

	p := &Profile{
		Name:           doc.Name,
		CreatedAt:      doc.CreatedAt,
		InitialBalance: doc.InitialBalance,
	}

	if p.Name == "" {
		base := filepath.Base(path)
		p.Name = base[:len(base)-len(filepath.Ext(base))]
	}

	var warnings []string

	seen := make(map[string]bool)

	for i := range doc.Entries {
		var e models.Entry

		if err := doc.Entries[i].Decode(&e); err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping entry %d: %v", i, err.Error()))

			continue
		}

		if err := e.Validate(); err != nil {
			warnings = append(warnings, fmt.Sprintf("skipping entry %d (%v): %v", i, e.Name, err.Error()))

			continue
		}

		if e.ID == "" {
			e.ID = uuid.NewString()
			warnings = append(warnings, fmt.Sprintf("entry %d (%v) had no id, assigned %v", i, e.Name, e.ID))
		}

		if seen[e.ID] {
			warnings = append(warnings, fmt.Sprintf("skipping entry %d (%v): duplicate id %v", i, e.Name, e.ID))

			continue
		}

		seen[e.ID] = true

		p.Entries = append(p.Entries, e)
	}

	return p, warnings, nil
}

// Save serializes the profile to the given path atomically: the document
// is written to a temp file in the same directory and renamed over the
// target, so a crash mid-write never corrupts an existing file.
func Save(p *Profile, path string) error {
	b, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile %v: %w", p.Name, err)
	}

	if err := WriteFileAtomic(path, b); err != nil {
		return fmt.Errorf("failed to save profile %v: %w", p.Name, err)
	}

	p.modified = false

	return nil
}

// WriteFileAtomic writes data to path via a temp file and rename. The
// temp file is removed on every failure path.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to make all directories %v: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".budget-tracker-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %v: %w", dir, err)
	}

	tmpName := tmp.Name()

	// removal is a no-op once the rename has happened
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()

		return fmt.Errorf("failed to write temp file %v: %w", tmpName, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()

		return fmt.Errorf("failed to sync temp file %v: %w", tmpName, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file %v: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to rename %v to %v: %w", tmpName, path, err)
	}

	return nil
}
