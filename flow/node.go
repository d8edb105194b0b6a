package flow

import (
	"context"

	"github.com/iov-one/iou"
	"github.com/iov-one/iou/crypto"
	"github.com/iov-one/iou/errors"
	cmn "github.com/tendermint/tendermint/libs/common"
)

// NotaryClient submits transactions to a notary.
type NotaryClient interface {
	// Identity returns the party the notary attests as.
	Identity() iou.Party

	// Notarize returns ErrConflict if the transaction consumes a state or
	// claims a linear id that another transaction already did.
	Notarize(ctx context.Context, txID cmn.HexBytes, inputs []iou.StateRef, stx *iou.SignedTransaction) (*iou.Attestation, error)
}

// NotarySelector picks the notary for a new transaction.
type NotarySelector interface {
	SelectNotary(ctx context.Context) (NotaryClient, error)
}

// Vault is the node local record of finalized transactions.
type Vault interface {
	Record(ctx context.Context, stx *iou.SignedTransaction) error
	HasLinearID(id iou.LinearID) (bool, error)
}

// Node groups everything a party needs to run flows.
type Node struct {
	Identity   iou.Party
	Signer     crypto.Signer
	Config     iou.Config
	Identities iou.IdentityService
	Notaries   NotarySelector
	Vault      Vault
	Sessions   SessionOpener
}

// NewNode returns a node acting as identity. The notary for new
// transactions is chosen among notaries by the name in cfg.Notary, or is
// the first one when no name is configured.
func NewNode(
	identity iou.Party,
	signer crypto.Signer,
	cfg iou.Config,
	identities iou.IdentityService,
	vault Vault,
	sessions SessionOpener,
	notaries ...NotaryClient,
) *Node {
	return &Node{
		Identity:   identity,
		Signer:     signer,
		Config:     cfg,
		Identities: identities,
		Notaries:   NewNotaryPool(cfg.Notary, notaries...),
		Vault:      vault,
		Sessions:   sessions,
	}
}

// Validate makes sure the node is fully wired.
func (n *Node) Validate() error {
	if err := n.Identity.Validate(); err != nil {
		return errors.Field("Identity", err, "invalid identity")
	}
	if n.Signer == nil || !n.Signer.PublicKey().Equals(n.Identity.Key) {
		return errors.Field("Signer", errors.ErrUnauthorized, "signer must hold the identity key")
	}
	if err := n.Config.Validate(); err != nil {
		return err
	}
	switch {
	case n.Identities == nil:
		return errors.Field("Identities", errors.ErrInvalidState, "required")
	case n.Notaries == nil:
		return errors.Field("Notaries", errors.ErrInvalidState, "required")
	case n.Vault == nil:
		return errors.Field("Vault", errors.ErrInvalidState, "required")
	case n.Sessions == nil:
		return errors.Field("Sessions", errors.ErrInvalidState, "required")
	}
	return nil
}

// NotaryPool selects a notary by name, or the first one when no name is
// configured.
type NotaryPool struct {
	preferred string
	notaries  []NotaryClient
}

var _ NotarySelector = (*NotaryPool)(nil)

// NewNotaryPool returns a selector over given notaries. An empty preferred
// name selects the first notary.
func NewNotaryPool(preferred string, notaries ...NotaryClient) *NotaryPool {
	return &NotaryPool{preferred: preferred, notaries: notaries}
}

// SelectNotary implements NotarySelector.
func (p *NotaryPool) SelectNotary(ctx context.Context) (NotaryClient, error) {
	if len(p.notaries) == 0 {
		return nil, errors.Wrap(errors.ErrNotFound, "no notary available")
	}
	if p.preferred == "" {
		return p.notaries[0], nil
	}
	for _, n := range p.notaries {
		if n.Identity().Name == p.preferred {
			return n, nil
		}
	}
	return nil, errors.Wrapf(errors.ErrNotFound, "notary %q", p.preferred)
}
