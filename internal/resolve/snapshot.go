package resolve

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Current snapshot schema, bump when Unit changes shape.
const snapshotSchema uint16 = 1

type Snapshot struct {
	Schema uint16
	Source string
	Unit   *Unit
}

// EncodeSnapshot writes the resolved unit as msgpack.
func EncodeSnapshot(w io.Writer, sourcePath string, unit *Unit) error {
	enc := msgpack.NewEncoder(w)
	return enc.Encode(&Snapshot{Schema: snapshotSchema, Source: sourcePath, Unit: unit})
}

func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&snap); err != nil {
		return nil, err
	}
	if snap.Schema != snapshotSchema {
		return nil, fmt.Errorf("snapshot schema %d is not supported (want %d)", snap.Schema, snapshotSchema)
	}
	if snap.Unit == nil {
		return nil, fmt.Errorf("snapshot carries no unit")
	}
	snap.Unit.index()
	return &snap, nil
}
