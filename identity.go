package iou

import (
	"context"
	"sort"
	"sync"

	"github.com/iov-one/iou/crypto"
	"github.com/iov-one/iou/errors"
)

// IdentityService resolves the well known key of a party by its name. It is
// the locally trusted source of identities: a key found in a proposal is
// only accepted when it matches what the identity service returns.
type IdentityService interface {
	ResolveKey(ctx context.Context, name string) (crypto.PublicKey, error)
}

// ResolveParty returns an error unless the identity service knows the
// party under the same key.
func ResolveParty(ctx context.Context, ids IdentityService, p Party) error {
	key, err := ids.ResolveKey(ctx, p.Name)
	if err != nil {
		return errors.Wrapf(err, "resolve %q", p.Name)
	}
	if !key.Equals(p.Key) {
		return errors.Wrapf(errors.ErrUnauthorized, "key of %q does not match the well known key", p.Name)
	}
	return nil
}

// Directory is a static, in memory network map. It is safe for concurrent
// use.
type Directory struct {
	mu      sync.RWMutex
	parties map[string]Party
}

var _ IdentityService = (*Directory)(nil)

// NewDirectory returns a directory that knows given parties. It panics if
// any party is invalid or a name is used twice.
func NewDirectory(parties ...Party) *Directory {
	d := &Directory{parties: make(map[string]Party)}
	for _, p := range parties {
		if err := d.Add(p); err != nil {
			panic(err)
		}
	}
	return d
}

// Add registers a party. Names are unique.
func (d *Directory) Add(p Party) error {
	if err := p.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.parties[p.Name]; ok {
		return errors.Wrapf(errors.ErrDuplicate, "party %q", p.Name)
	}
	d.parties[p.Name] = p
	return nil
}

// Party returns the registered party of given name.
func (d *Directory) Party(name string) (Party, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.parties[name]
	if !ok {
		return Party{}, errors.Wrapf(errors.ErrNotFound, "party %q", name)
	}
	return p, nil
}

// ResolveKey implements IdentityService.
func (d *Directory) ResolveKey(ctx context.Context, name string) (crypto.PublicKey, error) {
	p, err := d.Party(name)
	if err != nil {
		return crypto.PublicKey{}, err
	}
	return p.Key, nil
}

// Parties returns all registered parties ordered by name.
func (d *Directory) Parties() []Party {
	d.mu.RLock()
	res := make([]Party, 0, len(d.parties))
	for _, p := range d.parties {
		res = append(res, p)
	}
	d.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}
