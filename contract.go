package iou

import (
	"fmt"
	"sync"

	"github.com/iov-one/iou/crypto"
	"github.com/iov-one/iou/errors"
)

// Contract decides whether a state transition is valid. Implementations
// must be pure: the same arguments always give the same result, no I/O and
// no dependency on local node state. Every party runs the contract
// independently and never trusts the result computed by another party.
type Contract interface {
	Verify(cmd Command, inputs, outputs []State, signers []crypto.PublicKey) error
}

// ContractFunc adapts a function to the Contract interface.
type ContractFunc func(cmd Command, inputs, outputs []State, signers []crypto.PublicKey) error

// Verify calls fn.
func (fn ContractFunc) Verify(cmd Command, inputs, outputs []State, signers []crypto.PublicKey) error {
	return fn(cmd, inputs, outputs, signers)
}

var (
	contractsMu sync.RWMutex
	contracts   = make(map[string]Contract)
)

// RegisterContract binds a contract to a command path. Registering the
// same path twice panics. Call it from init only.
func RegisterContract(path string, c Contract) {
	contractsMu.Lock()
	defer contractsMu.Unlock()
	if _, ok := contracts[path]; ok {
		panic(fmt.Sprintf("contract for %q already registered", path))
	}
	contracts[path] = c
}

// ContractFor returns the contract registered for given command.
func ContractFor(cmd Command) (Contract, error) {
	if cmd == nil {
		return nil, errors.Wrap(errors.ErrValidation, "missing command")
	}
	contractsMu.RLock()
	c, ok := contracts[cmd.Path()]
	contractsMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrValidation, "no contract for command %q", cmd.Path())
	}
	return c, nil
}

// VerifyTransaction runs the contract selected by the transaction command.
// The inputs are the states the transaction inputs refer to, resolved by
// the caller, in the same order.
//
// Any failure is returned as ErrValidation.
func VerifyTransaction(tx *Transaction, inputs []State) error {
	if err := tx.Validate(); err != nil {
		return errors.Wrap(errors.ErrValidation, err.Error())
	}
	if len(inputs) != len(tx.Inputs) {
		return errors.Wrapf(errors.ErrValidation, "resolved %d of %d inputs", len(inputs), len(tx.Inputs))
	}
	c, err := ContractFor(tx.Command.Value)
	if err != nil {
		return err
	}
	if err := c.Verify(tx.Command.Value, inputs, tx.Outputs, tx.Command.Signers); err != nil {
		if errors.ErrValidation.Is(err) {
			return err
		}
		return errors.Wrap(errors.ErrValidation, err.Error())
	}
	return nil
}
