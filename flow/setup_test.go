package flow_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iov-one/iou"
	"github.com/iov-one/iou/flow"
	"github.com/iov-one/iou/iotest"
	"github.com/iov-one/iou/store"
	"github.com/iov-one/iou/store/iavl"
	"github.com/iov-one/iou/transport/memnet"
	"github.com/iov-one/iou/x/notary"
	"github.com/iov-one/iou/x/vault"
	"github.com/stretchr/testify/require"
	cmn "github.com/tendermint/tendermint/libs/common"
)

const chainID = "flow-test"

// party is a node taking part in a test network, with everything its
// responder did.
type party struct {
	iotest.Identity
	node  *flow.Node
	vault *vault.Vault

	sessions *countingOpener

	mu      sync.Mutex
	check   flow.CheckFunc
	results []response
}

type response struct {
	tx  *iou.SignedTransaction
	err error
}

func (p *party) setCheck(c flow.CheckFunc) {
	p.mu.Lock()
	p.check = c
	p.mu.Unlock()
}

func (p *party) responses() []response {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]response(nil), p.results...)
}

func (p *party) handle(ctx context.Context, s flow.Session) error {
	p.mu.Lock()
	check := p.check
	p.mu.Unlock()

	tx, err := flow.NewResponder(p.node, check).Handle(ctx, s)
	p.mu.Lock()
	p.results = append(p.results, response{tx: tx, err: err})
	p.mu.Unlock()
	return err
}

type testNet struct {
	net       *memnet.Network
	dir       *iou.Directory
	notary    *notary.Service
	notaryID  iotest.Identity
	notaryCli flow.NotaryClient
	parties   map[string]*party
}

// newTestNet connects parties of given names and a notary. Keys are
// derived, so every run uses the same identities.
func newTestNet(t *testing.T, names ...string) *testNet {
	t.Helper()
	ctx := context.Background()
	tn := &testNet{
		net:      memnet.New(ctx),
		dir:      iou.NewDirectory(),
		notaryID: iotest.DerivedIdentity(t, "Notary", 100),
		parties:  make(map[string]*party),
	}
	require.NoError(t, tn.dir.Add(tn.notaryID.Party))
	svc, err := notary.NewService(chainID, tn.notaryID.Party, tn.notaryID.Signer, iavl.NewMemCommitStore())
	require.NoError(t, err)
	tn.notary = svc
	tn.notaryCli = svc

	for i, name := range names {
		id := iotest.DerivedIdentity(t, name, uint32(i))
		require.NoError(t, tn.dir.Add(id.Party))
		p := &party{
			Identity: id,
			vault:    newVault(),
			sessions: &countingOpener{opener: tn.net.Opener(id.Party)},
		}
		cfg := iou.Config{
			ChainID:        chainID,
			SessionTimeout: iou.Duration(2 * time.Second),
			Notary:         tn.notaryID.Name,
		}
		p.node = flow.NewNode(id.Party, id.Signer, cfg, tn.dir, p.vault, p.sessions, &notaryProxy{tn: tn})
		require.NoError(t, p.node.Validate())
		require.NoError(t, tn.net.Register(id.Party, p.handle))
		tn.parties[name] = p
	}
	return tn
}

func newVault() *vault.Vault {
	return vault.New(store.NewMemStore())
}

func (tn *testNet) party(name string) *party {
	return tn.parties[name]
}

// notaryProxy lets a test swap the notary client after the nodes were
// built.
type notaryProxy struct {
	tn *testNet
}

func (p *notaryProxy) Identity() iou.Party {
	return p.tn.notaryCli.Identity()
}

func (p *notaryProxy) Notarize(ctx context.Context, txID cmn.HexBytes, inputs []iou.StateRef, stx *iou.SignedTransaction) (*iou.Attestation, error) {
	return p.tn.notaryCli.Notarize(ctx, txID, inputs, stx)
}

// countingOpener counts the sessions a node opened.
type countingOpener struct {
	opener flow.SessionOpener
	opened int32
}

func (o *countingOpener) OpenSession(ctx context.Context, with iou.Party) (flow.Session, error) {
	atomic.AddInt32(&o.opened, 1)
	return o.opener.OpenSession(ctx, with)
}

func (o *countingOpener) count() int {
	return int(atomic.LoadInt32(&o.opened))
}
