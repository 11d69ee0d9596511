// Package db opens the in-process buntdb instance backing the OrdersMatrix's
// spatial index (internal/matrix) and the visualization/admin snapshot store
// (repository). buntdb gives both consumers the same embedded, no-server
// key/value engine with range and spatial index support, avoiding the
// separate rtree/spatial library each would otherwise need.
package db

import (
	"github.com/tidwall/buntdb"
)

// Open opens (or creates) a buntdb database at path. Pass ":memory:" for a
// purely in-process instance, which is what every entrypoint in this repo
// uses: the simulator owns no durable history across runs (see spec
// Non-goals), so there is never a reason to open a file-backed path here
// except in tests that want to assert persistence explicitly.
func Open(path string) (*buntdb.DB, error) {
	if path == "" {
		path = ":memory:"
	}
	d, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	if err := d.SetConfig(buntdb.Config{
		SyncPolicy: buntdb.Never,
	}); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}
