package confloader

import (
	"errors"

	"github.com/knadh/koanf/maps"
)

// errReadBytes is returned by mapProvider.ReadBytes.
var errReadBytes = errors.New("confloader: map provider has no byte form")

// mapProvider feeds a map with dotted keys to koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errReadBytes
}

func (m mapProvider) Read() (map[string]any, error) {
	return maps.Unflatten(m, "."), nil
}
