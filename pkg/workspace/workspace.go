// Package workspace manages the scratch directory owned by one run.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"

	"github.com/jcristia/CGA/pkg/geo"
)

// Workspace is a directory created for exactly one run.
type Workspace struct {
	RunID     uuid.UUID
	Dir       string
	cleanup   bool
	snapshots bool
}

// Options configures a workspace.
type Options struct {
	// Root is the parent directory. Defaults to os.TempDir().
	Root      string
	Cleanup   bool
	Snapshots bool
}

// Create makes a new run directory under opts.Root. The directory name is
// derived from a fresh run id and creation fails if it already exists.
func Create(opts Options) (*Workspace, error) {
	root := opts.Root
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace root: %w", err)
	}

	id := uuid.New()
	dir := filepath.Join(root, "cga-"+id.String())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &Workspace{RunID: id, Dir: dir, cleanup: opts.Cleanup, snapshots: opts.Snapshots}, nil
}

// Snapshots reports whether intermediate outputs are written.
func (w *Workspace) Snapshots() bool { return w.snapshots }

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// WriteShapes writes shapes as a GeoJSON feature collection named
// <name>.geojson. props, when non-nil, supplies the properties of each
// shape. It is a no-op when snapshots are disabled.
func (w *Workspace) WriteShapes(name string, shapes []geo.Shape, props func(i int) map[string]interface{}) (string, error) {
	if !w.snapshots {
		return "", nil
	}
	fc := geojson.NewFeatureCollection()
	for i, s := range shapes {
		var p map[string]interface{}
		if props != nil {
			p = props(i)
		}
		fc.Append(s.Feature(p))
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encoding snapshot %s: %w", name, err)
	}
	path := filepath.Join(w.Dir, unsafeName.ReplaceAllString(name, "_")+".geojson")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing snapshot %s: %w", name, err)
	}
	return path, nil
}

// Close removes the directory when cleanup is enabled.
func (w *Workspace) Close() error {
	if !w.cleanup {
		return nil
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("removing workspace: %w", err)
	}
	return nil
}
