// internal/tenant/directory.go
//
// Static tenant directory.
//
// Context
// -------
// Tenants that are not (yet) registered in the CMS are listed in a YAML
// file, by default `conf/tenants.yaml`:
//
//	tenants:
//	  - id: mueller
//	    name: Müller Bau GmbH
//	    domains: [muellerbau.de, www.muellerbau.de]
//	    data_source: static
//	    static_file: static-mueller.json
//	    sections: [hero, services, cta]
//
// The file is loaded once at start-up with koanf.  A missing file yields an
// empty directory so CMS-only deployments need no YAML at all.
package tenant

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Directory is an immutable host and id index over statically configured
// tenants.
type Directory struct {
	byHost map[string]*Tenant
	byID   map[string]*Tenant
}

// NewDirectory indexes ts.  Later entries lose on duplicate hosts or ids.
func NewDirectory(ts []Tenant) *Directory {
	d := &Directory{
		byHost: make(map[string]*Tenant),
		byID:   make(map[string]*Tenant),
	}
	for i := range ts {
		t := ts[i]
		t.normalize()
		if t.ID == "" {
			continue
		}
		if _, dup := d.byID[t.ID]; dup {
			continue
		}
		d.byID[t.ID] = &t
		for _, h := range t.Domains {
			if _, dup := d.byHost[h]; !dup {
				d.byHost[h] = &t
			}
		}
	}
	return d
}

// LoadDirectory reads path.  A missing file is not an error.
func LoadDirectory(path string) (*Directory, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return NewDirectory(nil), nil
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("tenant directory %s: %w", path, err)
	}
	var ts []Tenant
	if err := k.Unmarshal("tenants", &ts); err != nil {
		return nil, fmt.Errorf("tenant directory %s: %w", path, err)
	}
	return NewDirectory(ts), nil
}

// ByHost returns the tenant serving host (already normalised).
func (d *Directory) ByHost(host string) (*Tenant, bool) {
	t, ok := d.byHost[host]
	return t, ok
}

// ByID returns the tenant with id.
func (d *Directory) ByID(id string) (*Tenant, bool) {
	t, ok := d.byID[id]
	return t, ok
}

// Len reports the number of tenants.
func (d *Directory) Len() int { return len(d.byID) }
