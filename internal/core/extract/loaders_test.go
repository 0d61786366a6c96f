package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Botforge/internal/core"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadCSVRendersRowsWithHeaders(t *testing.T) {
	path := writeTemp(t, "faq.csv", "question,answer\nHow do I reset?,Use the settings page\nIs there an API?,Yes\n")

	frags, err := loadByExtension(path)
	require.NoError(t, err)
	require.Len(t, frags, 2, "one fragment per data row, header excluded")

	assert.Equal(t, "question: How do I reset?\nanswer: Use the settings page", frags[0])
	assert.Equal(t, "question: Is there an API?\nanswer: Yes", frags[1])
}

func TestLoadCSVRaggedRowFallsBackToColumnNames(t *testing.T) {
	path := writeTemp(t, "data.csv", "a,b\n1,2,3\n")

	frags, err := loadByExtension(path)
	require.NoError(t, err)
	require.Len(t, frags, 1)
	assert.Contains(t, frags[0], "column_2: 3")
}

func TestLoadCSVEmptyFile(t *testing.T) {
	path := writeTemp(t, "empty.csv", "")
	frags, err := loadByExtension(path)
	require.NoError(t, err)
	assert.Empty(t, frags)
}

func TestLoadPlainText(t *testing.T) {
	for _, name := range []string{"notes.txt", "readme.md"} {
		path := writeTemp(t, name, "Plain content survives untouched.")
		frags, err := loadByExtension(path)
		require.NoError(t, err)
		require.Len(t, frags, 1)
		assert.Equal(t, "Plain content survives untouched.", frags[0])
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "slides.pptx", "binary junk")
	_, err := loadByExtension(path)
	require.Error(t, err)
	assert.Equal(t, core.KindContent, core.KindOf(err))
	assert.Contains(t, core.MessageOf(err), ".pptx")
	assert.Contains(t, core.MessageOf(err), "Supported: .csv .md .pdf .txt")
}
