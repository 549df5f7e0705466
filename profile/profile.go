// Package profile implements the profile aggregate: a named, ordered
// collection of entries with a starting balance, persisted as a single
// human-editable YAML document per profile.
package profile

import (
	"errors"
	"fmt"
	"time"

	"git.cmcode.dev/cmcode/budget-tracker/models"
	"git.cmcode.dev/cmcode/budget-tracker/money"

	"github.com/google/uuid"
)

var (
	// ErrEntryNotFound is returned when an entry ID is not present in
	// the profile.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrProfileNotFound is returned when a profile file does not exist
	// at the requested path.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrCorruptProfile is returned when a profile file exists but its
	// content cannot be parsed as a profile document.
	ErrCorruptProfile = errors.New("corrupt profile")
)

// Profile owns an ordered collection of entries plus metadata. Insertion
// order is preserved for display; calculations do not depend on it.
type Profile struct {
	Name      string    `yaml:"name"`
	CreatedAt time.Time `yaml:"createdAt"`

	// InitialBalance is the starting savings that every balance
	// calculation is based on.
	InitialBalance money.Amount `yaml:"initialBalance"`

	Entries []models.Entry `yaml:"entries"`

	modified bool
}

// New returns an empty profile with the given display name.
func New(name string) *Profile {
	return &Profile{
		Name:      name,
		CreatedAt: time.Now(),
	}
}

// Modified reports whether the profile has unsaved changes.
func (p *Profile) Modified() bool {
	return p.modified
}

// AddEntry validates the entry, assigns it a fresh unique ID and appends
// it to the collection. The assigned ID is returned.
func (p *Profile) AddEntry(e models.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}

	e.ID = uuid.NewString()

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	e.UpdatedAt = time.Now()

	p.Entries = append(p.Entries, e)
	p.modified = true

	return e.ID, nil
}

// RemoveEntry deletes the entry with the given ID, preserving the order
// of the remaining entries. The profile is unchanged on error.
func (p *Profile) RemoveEntry(id string) error {
	i, err := p.indexOf(id)
	if err != nil {
		return err
	}

	p.Entries = append(p.Entries[:i], p.Entries[i+1:]...)
	p.modified = true

	return nil
}

// UpdateEntry replaces the entry with the given ID in place, preserving
// the ID and creation timestamp.
func (p *Profile) UpdateEntry(id string, e models.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}

	i, err := p.indexOf(id)
	if err != nil {
		return err
	}

	e.ID = id
	e.CreatedAt = p.Entries[i].CreatedAt
	e.UpdatedAt = time.Now()

	p.Entries[i] = e
	p.modified = true

	return nil
}

// EntryByID returns a pointer to the entry with the given ID.
func (p *Profile) EntryByID(id string) (*models.Entry, error) {
	i, err := p.indexOf(id)
	if err != nil {
		return nil, err
	}

	return &p.Entries[i], nil
}

func (p *Profile) indexOf(id string) (int, error) {
	for i := range p.Entries {
		if p.Entries[i].ID == id {
			return i, nil
		}
	}

	return -1, fmt.Errorf("%w: %v", ErrEntryNotFound, id)
}
