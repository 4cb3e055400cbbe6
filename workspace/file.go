package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arrebarritra/inviwo/errors"
)

// SaveFile writes the document as JSON. The write goes through a
// temporary file in the same directory and renames into place, so a
// crash never leaves a truncated workspace behind.
func SaveFile(path string, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.WrapFatal(err, "workspace", "SaveFile", "document encoding")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".workspace-*.tmp")
	if err != nil {
		return errors.WrapTransient(err, "workspace", "SaveFile", "temp file creation")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.WrapTransient(err, "workspace", "SaveFile", "document write")
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapTransient(err, "workspace", "SaveFile", "temp file close")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.WrapTransient(err, "workspace", "SaveFile", "atomic rename")
	}
	return nil
}

// LoadFile reads a document from disk. Parse and validation failures are
// fatal for the whole file; per-item recovery happens later in
// Deserialize, not here.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapTransient(err, "workspace", "LoadFile", "file read")
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapInvalid(err, "workspace", "LoadFile",
			fmt.Sprintf("parsing %q", path))
	}
	if err := Convert(&doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}
