package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	dir := t.TempDir()

	p, err := Create(dir, "Add Contacts Table")
	require.NoError(t, err)

	assert.Contains(t, filepath.Base(p.UpPath), "add_contacts_table.up.sql")
	assert.Contains(t, filepath.Base(p.DownPath), "add_contacts_table.down.sql")

	up, err := os.ReadFile(p.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Add Contacts Table")

	_, err = os.Stat(p.DownPath)
	assert.NoError(t, err)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Add Contacts Table", "add_contacts_table"},
		{"fix--weird   spacing_", "fix_weird_spacing"},
		{"v2 Schema!", "v2_schema"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in), tt.in)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()

	_, err := Create(dir, "first")
	require.NoError(t, err)

	names, err := List(dir)
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Contains(t, names[0], "first")

	empty, err := List(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
