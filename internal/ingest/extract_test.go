package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestReadLocalTextPlain(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "hello world")

	text, err := ReadLocalText(dir, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestReadLocalTextMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "readme.md", "# Title\nbody")

	text, err := ReadLocalText(dir, "readme.md")
	require.NoError(t, err)
	assert.Equal(t, "# Title\nbody", text)
}

func TestReadLocalTextCSV(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "people.csv", "name,role\nAda Lovelace,Engineer\nGrace Hopper,\n")

	text, err := ReadLocalText(dir, "people.csv")
	require.NoError(t, err)
	assert.Equal(t, "name role\nAda Lovelace Engineer\nGrace Hopper", text)
}

func TestReadLocalTextUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "binary.exe", "MZ")

	_, err := ReadLocalText(dir, "binary.exe")
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestReadLocalTextConfinesTraversal(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	writeFile(t, outside, "secret.txt", "leaked")

	for _, path := range []string{
		"../" + filepath.Base(outside) + "/secret.txt",
		"../../etc/passwd.txt",
	} {
		_, err := ReadLocalText(dir, path)
		assert.Error(t, err, "path: %q", path)
	}
}

func TestReadLocalTextNestedPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "anon", "session-1"), 0o755))
	writeFile(t, filepath.Join(dir, "anon", "session-1"), "resume.txt", "Ada Lovelace")

	text, err := ReadLocalText(dir, "anon/session-1/resume.txt")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", text)
}

func TestReadLocalTextMissingFile(t *testing.T) {
	_, err := ReadLocalText(t.TempDir(), "missing.txt")
	assert.Error(t, err)
}
