package storage

import (
	"encoding"

	"github.com/vmihailenco/msgpack/v5"
)

type Storeable interface {
	Key() []byte
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// DBEntry is a single persisted key-value record.
type DBEntry struct {
	Name      string `msgpack:"name"`
	Value     string `msgpack:"value"`
	UpdatedAt int64  `msgpack:"updatedAt"`
}

func (e *DBEntry) Key() []byte {
	return []byte(e.Name)
}

func (e *DBEntry) MarshalBinary() (data []byte, err error) {
	type alias DBEntry
	return msgpack.Marshal((*alias)(e))
}

func (e *DBEntry) UnmarshalBinary(data []byte) error {
	type alias DBEntry
	return msgpack.Unmarshal(data, (*alias)(e))
}
