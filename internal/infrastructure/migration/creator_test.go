package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/farmsupport/vsla/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add loan guarantors", "add_loan_guarantors"},
		{"Add-Loan-Guarantors", "add_loan_guarantors"},
		{"ADD__SOCIAL__FUND", "add_social_fund"},
		{"Cycle 2027", "cycle_2027"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_Sequential(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "init schema", "tables")
	require.NoError(t, err)
	assert.Equal(t, "000001", first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_init_schema.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_init_schema.down.sql"), first.DownPath)

	second, err := CreateMigration(dir, "add loan guarantors", "guarantor table")
	require.NoError(t, err)
	assert.Equal(t, "000002", second.Version)

	up, err := os.ReadFile(second.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "add loan guarantors")
	assert.Contains(t, string(up), "guarantor table")

	down, err := os.ReadFile(second.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "first", "")
	require.NoError(t, err)
	_, err = os.Stat(mf.UpPath)
	assert.NoError(t, err)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_add_plans.up.sql":   {Data: []byte("")},
		"000002_add_plans.down.sql": {Data: []byte("")},
		"000001_init.up.sql":        {Data: []byte("")},
		"000001_init.down.sql":      {Data: []byte("")},
		"README.md":                 {Data: []byte("")},
		"subdir/000003_x.up.sql":    {Data: []byte("")},
	}

	got, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init", "000002_add_plans"}, got)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	got, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "absent")))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbeddedMigrations(t *testing.T) {
	got, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "000001_init_schema", got[0])

	for _, base := range got {
		_, err := migrations.FS.ReadFile(base + ".down.sql")
		assert.NoError(t, err, "%s has no down migration", base)
	}
}
