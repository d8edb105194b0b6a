package iou

import (
	"github.com/iov-one/iou/errors"
	amino "github.com/tendermint/go-amino"
)

// cdc encodes everything that is hashed, signed or sent between parties.
// Extensions register their State and Command implementations with it
// during init.
var cdc = amino.NewCodec()

func init() {
	cdc.RegisterInterface((*State)(nil), nil)
	cdc.RegisterInterface((*Command)(nil), nil)
}

// RegisterInterface makes an interface known to the codec so that values
// of that interface type can be encoded. Call it from init only.
func RegisterInterface(ptr interface{}) {
	cdc.RegisterInterface(ptr, nil)
}

// RegisterConcrete registers an implementation of a registered interface
// under a unique, stable name. The name is part of the encoding, so
// changing it breaks compatibility with recorded transactions. Call it from
// init only.
func RegisterConcrete(o interface{}, name string) {
	cdc.RegisterConcrete(o, name, nil)
}

// Marshal returns the deterministic binary encoding of o.
func Marshal(o interface{}) ([]byte, error) {
	bz, err := cdc.MarshalBinaryBare(o)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return bz, nil
}

// Unmarshal decodes bz into ptr. To decode an interface value pass a
// pointer to a variable of that interface type.
func Unmarshal(bz []byte, ptr interface{}) error {
	if err := cdc.UnmarshalBinaryBare(bz, ptr); err != nil {
		return errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return nil
}
