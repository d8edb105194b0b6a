package notary

import (
	"bytes"
	"context"
	"sync"

	proto "github.com/gogo/protobuf/proto"
	"github.com/iov-one/iou"
	"github.com/iov-one/iou/crypto"
	"github.com/iov-one/iou/errors"
	"github.com/iov-one/iou/store"
	cmn "github.com/tendermint/tendermint/libs/common"
)

const (
	kindInput    = "input"
	kindLinearID = "linear_id"
)

var (
	prefixInput    = []byte("in:")
	prefixLinearID = []byte("lid:")
	prefixReceipt  = []byte("tx:")
)

// Service is a single node notary. It is safe for concurrent use. Checking
// and recording claims happens under one lock, so of two conflicting
// transactions exactly one is notarized.
type Service struct {
	chainID  string
	identity iou.Party
	signer   crypto.Signer

	mu    sync.Mutex
	index store.CommitKVStore
}

// NewService returns a notary that records claims in given index and signs
// attestations with signer. The identity key must be the signer key.
func NewService(chainID string, identity iou.Party, signer crypto.Signer, index store.CommitKVStore) (*Service, error) {
	if !iou.IsValidChainID(chainID) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "chain id: %v", chainID)
	}
	if err := identity.Validate(); err != nil {
		return nil, errors.Wrap(err, "notary identity")
	}
	if !identity.Key.Equals(signer.PublicKey()) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "signer does not hold the identity key")
	}
	return &Service{
		chainID:  chainID,
		identity: identity,
		signer:   signer,
		index:    index,
	}, nil
}

// Identity returns the party the notary attests as.
func (s *Service) Identity() iou.Party {
	return s.identity
}

// Notarize records the transaction in the uniqueness index and returns an
// attestation of that.
//
// The transaction must name this notary, carry every required signature
// and consume exactly the given inputs. ErrConflict is returned if any
// input was consumed, or any output linear id was issued, by another
// transaction. Notarizing the same transaction again returns the
// attestation issued the first time.
func (s *Service) Notarize(ctx context.Context, txID cmn.HexBytes, inputs []iou.StateRef, stx *iou.SignedTransaction) (*iou.Attestation, error) {
	if stx == nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "missing transaction")
	}
	id, err := stx.ID()
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(id, txID) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "transaction id is %s, not %s", id, txID)
	}
	if !stx.Tx.Notary.Equals(s.identity) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "transaction is assigned to notary %s", stx.Tx.Notary.Name)
	}
	if !sameRefs(inputs, stx.Tx.Inputs) {
		return nil, errors.Wrap(errors.ErrInvalidInput, "inputs do not match the transaction")
	}
	if err := stx.VerifyRequiredSignatures(s.chainID); err != nil {
		return nil, err
	}

	claims, err := claimKeys(stx.Tx)
	if err != nil {
		return nil, err
	}
	logger := iou.GetLogger(ctx).With("module", "notary", "tx", id)

	s.mu.Lock()
	defer s.mu.Unlock()

	if r, err := s.receipt(id); err != nil {
		return nil, err
	} else if r != nil {
		logger.Debug("transaction already notarized", "version", r.Version)
		return s.attestation(id, r), nil
	}

	for _, c := range claims {
		raw, err := s.index.Get(c.key)
		if err != nil {
			return nil, errors.Wrap(err, "read index")
		}
		if raw == nil {
			continue
		}
		var owner Claim
		if err := proto.Unmarshal(raw, &owner); err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidState, "cannot decode claim: %s", err)
		}
		logger.Info("conflicting claim", "key", string(c.key), "owner", cmn.HexBytes(owner.TxID))
		return nil, errors.Wrapf(errors.ErrConflict, "%s %s already claimed by transaction %s",
			c.kind, c.key[bytes.IndexByte(c.key, ':')+1:], cmn.HexBytes(owner.TxID))
	}

	for _, c := range claims {
		raw, err := proto.Marshal(&Claim{TxID: id, Kind: c.kind})
		if err != nil {
			return nil, errors.Wrap(errors.ErrHuman, err.Error())
		}
		if err := s.index.Set(c.key, raw); err != nil {
			return nil, errors.Wrap(err, "write index")
		}
	}
	commit, err := s.index.Commit()
	if err != nil {
		return nil, err
	}

	bz, err := iou.AttestationSignBytes(s.chainID, id, commit.Hash, commit.Version)
	if err != nil {
		return nil, err
	}
	sig, err := s.signer.Sign(bz)
	if err != nil {
		return nil, errors.Wrap(err, "sign attestation")
	}
	r := &Receipt{Version: commit.Version, IndexHash: commit.Hash, Signature: sig.Ed25519}
	raw, err := proto.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrHuman, err.Error())
	}
	// The receipt refers to the commit above, so it can only become part of
	// the next version.
	if err := s.index.Set(receiptKey(id), raw); err != nil {
		return nil, errors.Wrap(err, "write receipt")
	}

	logger.Info("transaction notarized", "version", commit.Version, "claims", len(claims))
	return s.attestation(id, r), nil
}

func (s *Service) receipt(txID []byte) (*Receipt, error) {
	raw, err := s.index.Get(receiptKey(txID))
	if err != nil {
		return nil, errors.Wrap(err, "read receipt")
	}
	if raw == nil {
		return nil, nil
	}
	var r Receipt
	if err := proto.Unmarshal(raw, &r); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidState, "cannot decode receipt: %s", err)
	}
	return &r, nil
}

func (s *Service) attestation(txID cmn.HexBytes, r *Receipt) *iou.Attestation {
	return &iou.Attestation{
		Notary:    s.identity,
		TxID:      txID,
		Version:   r.Version,
		IndexHash: r.IndexHash,
		Signature: crypto.Signature{Ed25519: r.Signature},
	}
}

// Claimed returns the id of the transaction that issued given linear id,
// or nil if it was never issued.
func (s *Service) Claimed(id iou.LinearID) (cmn.HexBytes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := s.index.Get(linearIDKey(id))
	if err != nil || raw == nil {
		return nil, err
	}
	var c Claim
	if err := proto.Unmarshal(raw, &c); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidState, "cannot decode claim: %s", err)
	}
	return c.TxID, nil
}

type claim struct {
	key  []byte
	kind string
}

// claimKeys returns every index key the transaction takes ownership of.
// A transaction claiming the same key twice is malformed.
func claimKeys(tx iou.Transaction) ([]claim, error) {
	var claims []claim
	seen := make(map[string]struct{})
	add := func(key []byte, kind string) error {
		if _, ok := seen[string(key)]; ok {
			return errors.Wrapf(errors.ErrDuplicate, "%s %s claimed twice", kind, key)
		}
		seen[string(key)] = struct{}{}
		claims = append(claims, claim{key: key, kind: kind})
		return nil
	}

	for _, ref := range tx.Inputs {
		if err := add(inputKey(ref), kindInput); err != nil {
			return nil, err
		}
	}
	for _, out := range tx.Outputs {
		ls, ok := out.(iou.LinearState)
		if !ok {
			continue
		}
		// Evolving a linear state consumes its previous version, which
		// already holds the id. Only issuance claims a new one.
		if len(tx.Inputs) != 0 {
			continue
		}
		if err := add(linearIDKey(ls.GetLinearID()), kindLinearID); err != nil {
			return nil, err
		}
	}
	return claims, nil
}

func inputKey(ref iou.StateRef) []byte {
	return append(append([]byte{}, prefixInput...), ref.String()...)
}

func linearIDKey(id iou.LinearID) []byte {
	return append(append([]byte{}, prefixLinearID...), id...)
}

func receiptKey(txID []byte) []byte {
	return append(append([]byte{}, prefixReceipt...), cmn.HexBytes(txID).String()...)
}

func sameRefs(a, b []iou.StateRef) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Index != b[i].Index || !bytes.Equal(a[i].TxID, b[i].TxID) {
			return false
		}
	}
	return true
}
