package iou

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"regexp"

	"github.com/iov-one/iou/crypto"
	"github.com/iov-one/iou/crypto/bech32"
	"github.com/iov-one/iou/errors"
)

var (
	// AddressLength is the length of all addresses
	// You can modify it in init() before any addresses are calculated,
	// but it must not change during the lifetime of the ledger
	AddressLength = 20

	isPartyName = regexp.MustCompile(`^[a-zA-Z0-9 _\-=,.]{1,64}$`).MatchString
)

// Party is a well known identity on the network: a legal name and the key
// it signs with.
type Party struct {
	Name string           `json:"name"`
	Key  crypto.PublicKey `json:"key"`
}

// NewParty returns a party of given name that signs with given key.
func NewParty(name string, key crypto.PublicKey) Party {
	return Party{Name: name, Key: key}
}

// Validate returns an error if the name or the key are malformed.
func (p Party) Validate() error {
	if !isPartyName(p.Name) {
		return errors.Wrapf(errors.ErrInvalidInput, "party name %q", p.Name)
	}
	if err := p.Key.Validate(); err != nil {
		return errors.Wrapf(err, "party %q key", p.Name)
	}
	return nil
}

// Equals returns true if both name and key are the same.
func (p Party) Equals(o Party) bool {
	return p.Name == o.Name && p.Key.Equals(o.Key)
}

// Address returns the digest of the party key.
func (p Party) Address() Address {
	return NewAddress(p.Key.Ed25519)
}

// String returns the name together with the bech32 address.
func (p Party) String() string {
	return fmt.Sprintf("%s (%s)", p.Name, p.Address())
}

// ContainsParty returns true if p is one of the parties.
func ContainsParty(parties []Party, p Party) bool {
	for _, q := range parties {
		if q.Equals(p) {
			return true
		}
	}
	return false
}

// Address represents a collision-free, one-way digest
// of a public key.
//
// It will be of size AddressLength
type Address []byte

// NewAddress hashes and truncates into the proper size
func NewAddress(data []byte) Address {
	if data == nil {
		return nil
	}
	h := sha256.Sum256(data)
	return h[:AddressLength]
}

// ParseAddress decodes a bech32 representation produced by String.
func ParseAddress(raw string) (Address, error) {
	payload, err := bech32.DecodeAddress(raw)
	if err != nil {
		return nil, err
	}
	addr := Address(payload)
	return addr, addr.Validate()
}

// Equals checks if two addresses are the same
func (a Address) Equals(b Address) bool {
	return bytes.Equal(a, b)
}

// Validate returns an error if the address is not the valid size
func (a Address) Validate() error {
	if len(a) != AddressLength {
		return errors.Wrapf(errors.ErrInvalidInput, "address: %X", []byte(a))
	}
	return nil
}

// String returns a human readable bech32 string.
func (a Address) String() string {
	if len(a) == 0 {
		return "(nil)"
	}
	s, err := bech32.Encode(bech32.AddressHRP, a)
	if err != nil {
		return fmt.Sprintf("%X", []byte(a))
	}
	return s
}
