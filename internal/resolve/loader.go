package resolve

import (
	"path/filepath"
	"strings"

	"github.com/Redux-Robotics/canandrepo-public/internal/canerr"
	"github.com/Redux-Robotics/canandrepo-public/internal/specdoc"
)

// BaseLoader fetches a named base spec by its lowercased name. Resolve
// calls it once per entry in a device's base chain; it never calls it for
// the root spec itself.
type BaseLoader interface {
	LoadBase(name string) (*specdoc.DeviceSpec, error)
}

// DirLoader loads base specs as "<dir>/<lower(name)>.toml", the layout the
// original loader uses (spec_path.parent/f"{base.lower()}.toml").
type DirLoader struct {
	Dir string
}

// LoadBase implements BaseLoader.
func (l DirLoader) LoadBase(name string) (*specdoc.DeviceSpec, error) {
	path := filepath.Join(l.Dir, strings.ToLower(name)+".toml")
	spec, err := specdoc.Load(path)
	if err != nil {
		return nil, canerr.New(canerr.KindSpecInvalid, "missing base spec "+name, map[string]any{"path": path, "cause": err.Error()})
	}
	return spec, nil
}
