package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"git.cmcode.dev/cmcode/budget-tracker/models"
	"git.cmcode.dev/cmcode/budget-tracker/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(t *testing.T, kind models.EntryKind, name string, cents int64) models.Entry {
	t.Helper()

	e, err := models.NewEntry(kind, name, money.FromCents(cents),
		models.Recurrence{Frequency: models.FreqMonthly}, models.NewDate(2024, 1, 1), nil)
	require.NoError(t, err)

	return e
}

func TestAddRemoveUpdateEntry(t *testing.T) {
	p := New("household")

	id, err := p.AddEntry(newTestEntry(t, models.KindSubscription, "netflix", 1500))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	id2, err := p.AddEntry(newTestEntry(t, models.KindIncome, "salary", 300000))
	require.NoError(t, err)
	require.NotEqual(t, id, id2)

	assert.True(t, p.Modified())
	assert.Len(t, p.Entries, 2)

	e, err := p.EntryByID(id)
	require.NoError(t, err)
	assert.Equal(t, "netflix", e.Name)

	updated := newTestEntry(t, models.KindSubscription, "netflix 4k", 2200)
	require.NoError(t, p.UpdateEntry(id, updated))

	e, err = p.EntryByID(id)
	require.NoError(t, err)
	assert.Equal(t, "netflix 4k", e.Name)
	assert.Equal(t, id, e.ID, "update must preserve the id")

	require.NoError(t, p.RemoveEntry(id))
	assert.Len(t, p.Entries, 1)

	_, err = p.EntryByID(id)
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestRemoveEntryNotFoundLeavesProfileUnchanged(t *testing.T) {
	p := New("household")

	_, err := p.AddEntry(newTestEntry(t, models.KindSubscription, "netflix", 1500))
	require.NoError(t, err)

	err = p.RemoveEntry("no-such-id")
	assert.ErrorIs(t, err, ErrEntryNotFound)
	assert.Len(t, p.Entries, 1)

	assert.ErrorIs(t, p.UpdateEntry("no-such-id", newTestEntry(t, models.KindExpense, "x", 100)), ErrEntryNotFound)
}

func TestAddEntryRejectsInvalid(t *testing.T) {
	p := New("household")

	bad := newTestEntry(t, models.KindSubscription, "netflix", 1500)
	ends := models.NewDate(2023, 1, 1) // before the start date
	bad.Ends = &ends

	_, err := p.AddEntry(bad)
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)
	assert.Empty(t, p.Entries)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "household.yml")

	p := New("household")
	p.InitialBalance = money.FromCents(50000)

	_, err := p.AddEntry(newTestEntry(t, models.KindSubscription, "netflix", 1500))
	require.NoError(t, err)
	_, err = p.AddEntry(newTestEntry(t, models.KindIncome, "salary", 300000))
	require.NoError(t, err)

	require.NoError(t, Save(p, path))
	assert.False(t, p.Modified(), "save clears the modified flag")

	loaded, warnings, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	assert.Equal(t, p.Name, loaded.Name)
	assert.True(t, p.InitialBalance.Equal(loaded.InitialBalance))
	require.Len(t, loaded.Entries, 2)

	for i := range p.Entries {
		assert.Equal(t, p.Entries[i].ID, loaded.Entries[i].ID)
		assert.Equal(t, p.Entries[i].Name, loaded.Entries[i].Name)
		assert.Equal(t, p.Entries[i].Kind, loaded.Entries[i].Kind)
		assert.True(t, p.Entries[i].Amount.Equal(loaded.Entries[i].Amount))
		assert.Equal(t, p.Entries[i].Recurrence, loaded.Entries[i].Recurrence)
		assert.Equal(t, p.Entries[i].Starts, loaded.Entries[i].Starts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed"), 0o644))

	_, _, err := Load(path)
	assert.ErrorIs(t, err, ErrCorruptProfile)
}

func TestLoadSkipsMalformedEntries(t *testing.T) {
	doc := `name: household
createdAt: 2024-01-01T00:00:00Z
initialBalance: "0.00"
entries:
    - id: aaa
      kind: subscription
      name: netflix
      amount: "15.00"
      recurrence:
        frequency: MONTHLY
        day: 1
      starts: "2024-01-01"
    - id: bbb
      kind: loanshark
      name: bad kind
      amount: "1.00"
      recurrence:
        frequency: MONTHLY
      starts: "2024-01-01"
    - id: ccc
      kind: expense
      name: bad amount
      amount: "lots"
      recurrence:
        frequency: ONCE
      starts: "2024-01-01"
    - id: aaa
      kind: expense
      name: duplicate id
      amount: "5.00"
      recurrence:
        frequency: ONCE
      starts: "2024-02-01"
`

	path := filepath.Join(t.TempDir(), "household.yml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	p, warnings, err := Load(path)
	require.NoError(t, err)

	require.Len(t, p.Entries, 1, "only the valid entry survives")
	assert.Equal(t, "netflix", p.Entries[0].Name)
	assert.Len(t, warnings, 3)
}

func TestLoadAssignsMissingIDs(t *testing.T) {
	doc := `name: household
entries:
    - kind: expense
      name: groceries
      amount: "80.00"
      recurrence:
        frequency: MONTHLY
      starts: "2024-01-01"
`

	path := filepath.Join(t.TempDir(), "household.yml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	p, warnings, err := Load(path)
	require.NoError(t, err)
	require.Len(t, p.Entries, 1)
	assert.NotEmpty(t, p.Entries[0].ID)
	assert.Len(t, warnings, 1)
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "household.yml")

	p := New("household")
	_, err := p.AddEntry(newTestEntry(t, models.KindSubscription, "netflix", 1500))
	require.NoError(t, err)

	require.NoError(t, Save(p, path))
	require.NoError(t, Save(p, path)) // overwrite in place

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	for _, de := range entries {
		assert.False(t, strings.HasSuffix(de.Name(), ".tmp"), "temp file %v left behind", de.Name())
	}
}

func TestWriteFileAtomicCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "file.yml")
	require.NoError(t, WriteFileAtomic(path, []byte("ok")))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(b))
}
