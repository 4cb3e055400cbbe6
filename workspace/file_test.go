package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrebarritra/inviwo/errors"
)

func TestSaveLoadFileRoundTrip(t *testing.T) {
	r := testRegistry(t)
	f := propFactory(t)
	n := newNet()
	buildPipeline(t, n, r)

	doc, err := Serialize(n)
	require.NoError(t, err)
	doc.Title = "pipeline"

	path := filepath.Join(t.TempDir(), "pipeline.json")
	require.NoError(t, SaveFile(path, doc))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "pipeline", loaded.Title)
	assert.Equal(t, SchemaVersion, loaded.Version)

	restored := newNet()
	require.NoError(t, Deserialize(loaded, restored, r, f))
	assert.Equal(t, n.Len(), restored.Len())
	assert.Len(t, restored.Connections(), 2)
}

func TestSaveFileLeavesNoTempOnSuccess(t *testing.T) {
	r := testRegistry(t)
	n := newNet()
	buildPipeline(t, n, r)
	doc, err := Serialize(n)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, SaveFile(filepath.Join(dir, "w.json"), doc))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "w.json", entries[0].Name())
}

func TestLoadFileRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestLoadFileRejectsInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	// Two processors sharing an identifier fail validation.
	payload := `{"version":2,"processors":[
		{"identifier":"a","classIdentifier":"org.test.Source"},
		{"identifier":"a","classIdentifier":"org.test.Source"}]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateIdentifier)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
