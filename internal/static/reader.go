// Package static reads per-tenant JSON content files from a local
// directory.  It is the last content source in the fallback chain and the
// only one for tenants configured with `data_source: static`.
//
// Files are read on every call; the content cache above keeps repeated
// reads off the disk.  A name must be a bare file name: separators, "..",
// and anything not ending in ".json" are rejected before the file system
// is touched.
package static

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidName rejects names that could escape the content directory.
	ErrInvalidName = errors.New("static: invalid file name")
	// ErrMalformed means the file is not a JSON object.
	ErrMalformed = errors.New("static: malformed content file")
)

// Reader serves files from Dir.
type Reader struct {
	Dir string
}

// New returns a Reader rooted at dir.
func New(dir string) *Reader { return &Reader{Dir: dir} }

// ReadJSON returns the raw bytes of <Dir>/<name> after checking that they
// hold a JSON object.  Missing files surface as fs.ErrNotExist.
func (r *Reader) ReadJSON(name string) (json.RawMessage, error) {
	if !validName(name) {
		return nil, fmt.Errorf("%w %q", ErrInvalidName, name)
	}
	b, err := os.ReadFile(filepath.Join(r.Dir, name))
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' || !json.Valid(b) {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, name)
	}
	return b, nil
}

func validName(name string) bool {
	if name == "" || name != filepath.Base(name) || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), ".json")
}
