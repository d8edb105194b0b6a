/*
Package vault keeps the transactions a node took part in, once they are
final, and answers queries about the states they created.
*/
package vault

import (
	"context"
	"sync"

	"github.com/iov-one/iou"
	"github.com/iov-one/iou/errors"
	"github.com/iov-one/iou/store"
	"github.com/iov-one/iou/x/obligation"
	cmn "github.com/tendermint/tendermint/libs/common"
)

var (
	prefixTx       = []byte("tx:")
	prefixLinearID = []byte("lid:")
)

// Vault is a node local store of finalized transactions. It is safe for
// concurrent use.
type Vault struct {
	mu sync.Mutex
	kv store.KVStore
}

// New returns a vault writing to given store. Use store.NewMemStore for an
// in memory vault.
func New(kv store.KVStore) *Vault {
	return &Vault{kv: kv}
}

// Record persists a finalized transaction and indexes the linear ids of its
// outputs. Recording the same transaction twice is a no-op.
func (v *Vault) Record(ctx context.Context, stx *iou.SignedTransaction) error {
	if stx == nil {
		return errors.Wrap(errors.ErrInvalidInput, "missing transaction")
	}
	id, err := stx.ID()
	if err != nil {
		return err
	}
	raw, err := iou.Marshal(stx)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	key := txKey(id)
	if ok, err := v.kv.Has(key); err != nil {
		return err
	} else if ok {
		return nil
	}
	if err := v.kv.Set(key, raw); err != nil {
		return errors.Wrap(err, "store transaction")
	}
	for _, out := range stx.Tx.Outputs {
		if ls, ok := out.(iou.LinearState); ok {
			if err := v.kv.Set(linearIDKey(ls.GetLinearID()), id); err != nil {
				return errors.Wrap(err, "index linear id")
			}
		}
	}

	iou.GetLogger(ctx).With("module", "vault").Debug("transaction recorded", "tx", id)
	return nil
}

// ByTxID returns the recorded transaction of given id.
func (v *Vault) ByTxID(id []byte) (*iou.SignedTransaction, error) {
	raw, err := v.kv.Get(txKey(id))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "transaction %s", cmn.HexBytes(id))
	}
	var stx iou.SignedTransaction
	if err := iou.Unmarshal(raw, &stx); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidState, "corrupted transaction %s: %s", cmn.HexBytes(id), err)
	}
	return &stx, nil
}

// ByLinearID returns the latest recorded transaction that produced a state
// with given linear id.
func (v *Vault) ByLinearID(lid iou.LinearID) (*iou.SignedTransaction, error) {
	id, err := v.kv.Get(linearIDKey(lid))
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "linear id %s", lid)
	}
	return v.ByTxID(id)
}

// HasLinearID returns true if any recorded transaction produced a state
// with given linear id.
func (v *Vault) HasLinearID(lid iou.LinearID) (bool, error) {
	return v.kv.Has(linearIDKey(lid))
}

// Obligations returns the latest version of every obligation record held
// by the vault, ordered by linear id.
func (v *Vault) Obligations() ([]*obligation.ObligationRecord, error) {
	var res []*obligation.ObligationRecord
	err := v.kv.Iterate(prefixLinearID, func(key, id []byte) error {
		lid := iou.LinearID(key[len(prefixLinearID):])
		stx, err := v.ByTxID(id)
		if err != nil {
			return err
		}
		for _, out := range stx.Tx.Outputs {
			if rec, ok := obligation.AsObligation(out); ok && rec.LinearID == lid {
				res = append(res, rec)
			}
		}
		return nil
	})
	return res, err
}

func txKey(id []byte) []byte {
	return append(append([]byte{}, prefixTx...), id...)
}

func linearIDKey(lid iou.LinearID) []byte {
	return append(append([]byte{}, prefixLinearID...), lid...)
}
