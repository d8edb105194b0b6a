// Package bech32 renders party addresses in a human readable, checksummed
// form.
package bech32

import (
	"github.com/btcsuite/btcutil/bech32"
	"github.com/iov-one/iou/errors"
)

// AddressHRP is the human readable part of every party address.
const AddressHRP = "iou"

// Decode converts given bech32 encoded representation into raw payload and a
// human readable part.
func Decode(raw string) (string, []byte, error) {
	hrp, payload, err := bech32.Decode(raw)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	payload, err = bech32.ConvertBits(payload, 5, 8, false)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return hrp, payload, nil
}

// Encode converts given bytes into bech32 encoded representation.
func Encode(hrp string, payload []byte) (string, error) {
	conv, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	raw, err := bech32.Encode(hrp, conv)
	if err != nil {
		return "", errors.Wrap(errors.ErrInvalidInput, err.Error())
	}
	return raw, nil
}

// DecodeAddress parses an address encoded with the AddressHRP prefix.
func DecodeAddress(raw string) ([]byte, error) {
	hrp, payload, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if hrp != AddressHRP {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unexpected prefix %q", hrp)
	}
	return payload, nil
}
