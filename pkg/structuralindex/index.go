package structuralindex

import (
	"bytes"
	"fmt"

	"github.com/kodewerx/memoria/pkg/registry"
)

const tree = "structural"

// sep is the NUL-byte separator used to compose property|value|node_id
// keys (§4.6).
const sep = 0x00

// Index is a property -> {node id} inverted index over one registry-backed
// storage. It does not own the storage's lifecycle; callers register the
// backing engine on the registry themselves (typically alongside the
// coordinator's other storages).
type Index struct {
	reg      *registry.Registry
	storage  string
	treeName string
}

// New wraps an Index around an already-registered storage name. The
// storage must have a tree named "structural" opened on it (or the name
// passed to Open); callers typically call Open to set both up atomically.
func New(reg *registry.Registry, storageName string) *Index {
	return &Index{reg: reg, storage: storageName, treeName: tree}
}

// Open registers storageName on reg (if not already registered) with the
// structural tree opened, and returns an Index over it.
func Open(reg *registry.Registry, storageName string) (*Index, error) {
	if !reg.Has(storageName) {
		if err := reg.AddStorage(storageName, []string{tree}); err != nil {
			return nil, fmt.Errorf("structuralindex: open %s: %w", storageName, err)
		}
	}
	return New(reg, storageName), nil
}

func composeKey(property, value, nodeID string) []byte {
	key := make([]byte, 0, len(property)+len(value)+len(nodeID)+2)
	key = append(key, property...)
	key = append(key, sep)
	key = append(key, value...)
	key = append(key, sep)
	key = append(key, nodeID...)
	return key
}

func composePrefix(property, value string) []byte {
	prefix := make([]byte, 0, len(property)+len(value)+2)
	prefix = append(prefix, property...)
	prefix = append(prefix, sep)
	prefix = append(prefix, value...)
	prefix = append(prefix, sep)
	return prefix
}

// Index records that nodeID has property=value. Idempotent: recording the
// same (property, value, nodeID) triple twice is a no-op on the key set.
func (idx *Index) Index(property, value, nodeID string) error {
	return idx.reg.Insert(idx.storage, idx.treeName, composeKey(property, value, nodeID), nil)
}

// Remove deletes the (property, value, nodeID) membership fact, if present.
func (idx *Index) Remove(property, value, nodeID string) error {
	return idx.reg.Remove(idx.storage, idx.treeName, composeKey(property, value, nodeID))
}

// Query returns every node id recorded against property=value, in
// lexicographic order on id bytes.
func (idx *Index) Query(property, value string) ([]string, error) {
	prefix := composePrefix(property, value)
	it, err := idx.reg.ScanPrefix(idx.storage, idx.treeName, prefix)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var ids []string
	for it.Next() {
		id := bytes.TrimPrefix(it.Key(), prefix)
		ids = append(ids, string(id))
	}
	return ids, nil
}
