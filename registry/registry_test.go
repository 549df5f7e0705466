package registry

import (
	"os"
	"path/filepath"
	"testing"

	"git.cmcode.dev/cmcode/budget-tracker/profile"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()

	dir := t.TempDir()

	r, err := New(dir, zerolog.Nop())
	require.NoError(t, err)

	return r, dir
}

func TestCreateListAndPath(t *testing.T) {
	r, dir := newTestRegistry(t)

	assert.Empty(t, r.List())

	p, err := r.Create("household")
	require.NoError(t, err)
	assert.Equal(t, "household", p.Name)

	_, err = r.Create("vacation fund")
	require.NoError(t, err)

	assert.Equal(t, []string{"household", "vacation fund"}, r.List())

	path, err := r.Path("household")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "household.yml"), path)

	_, err = r.Path("nope")
	assert.ErrorIs(t, err, profile.ErrProfileNotFound)

	// the profile file and the index both exist on disk
	_, err = os.Stat(path)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "index.yml"))
	require.NoError(t, err)
}

func TestCreateDuplicate(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.Create("household")
	require.NoError(t, err)

	_, err = r.Create("household")
	assert.ErrorIs(t, err, ErrDuplicateProfile)
}

func TestCreateInvalidNames(t *testing.T) {
	r, _ := newTestRegistry(t)

	for _, name := range []string{"", "a/b", `a\b`, ".hidden", "../escape"} {
		_, err := r.Create(name)
		assert.ErrorIs(t, err, ErrInvalidProfileName, "name %q", name)
	}
}

func TestRename(t *testing.T) {
	r, dir := newTestRegistry(t)

	_, err := r.Create("household")
	require.NoError(t, err)

	require.NoError(t, r.Rename("household", "family"))
	assert.Equal(t, []string{"family"}, r.List())

	_, err = os.Stat(filepath.Join(dir, "household.yml"))
	assert.True(t, os.IsNotExist(err), "old file should be gone")

	p, _, err := profile.Load(filepath.Join(dir, "family.yml"))
	require.NoError(t, err)
	assert.Equal(t, "family", p.Name, "display name follows the rename")

	assert.ErrorIs(t, r.Rename("nope", "x"), profile.ErrProfileNotFound)

	_, err = r.Create("household")
	require.NoError(t, err)
	assert.ErrorIs(t, r.Rename("household", "family"), ErrDuplicateProfile)
}

func TestDelete(t *testing.T) {
	r, dir := newTestRegistry(t)

	_, err := r.Create("household")
	require.NoError(t, err)

	require.NoError(t, r.Delete("household"))
	assert.Empty(t, r.List())

	_, err = os.Stat(filepath.Join(dir, "household.yml"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, r.Delete("household"), profile.ErrProfileNotFound)
}

func TestScanAdoptsUnindexedFiles(t *testing.T) {
	dir := t.TempDir()

	p := profile.New("imported")
	require.NoError(t, profile.Save(p, filepath.Join(dir, "imported.yml")))

	r, err := New(dir, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, []string{"imported"}, r.List())
}

func TestScanDropsMissingFiles(t *testing.T) {
	r, dir := newTestRegistry(t)

	_, err := r.Create("household")
	require.NoError(t, err)

	// remove the file behind the registry's back, then rebuild
	require.NoError(t, os.Remove(filepath.Join(dir, "household.yml")))

	r2, err := New(dir, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, r2.List())
}

func TestScanSurvivesBrokenIndex(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, profile.Save(profile.New("a"), filepath.Join(dir, "a.yml")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.yml"), []byte("profiles: [broken"), 0o644))

	r, err := New(dir, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, r.List())
}

func TestSearch(t *testing.T) {
	r, _ := newTestRegistry(t)

	for _, name := range []string{"household", "house renovation", "vacation fund"} {
		_, err := r.Create(name)
		require.NoError(t, err)
	}

	got := r.Search("house")
	require.NotEmpty(t, got)

	for _, name := range got {
		assert.Contains(t, []string{"household", "house renovation"}, name)
	}

	assert.Len(t, r.Search(""), 3, "empty query returns everything")
	assert.Empty(t, r.Search("zzzzz"))
}
