/*
Package memnet is an in process network for running flows between parties
of the same program, mostly in tests.

Every message goes through the wire codec, so a party never shares memory
with another one.
*/
package memnet

import (
	"context"
	"sync"

	"github.com/iov-one/iou"
	"github.com/iov-one/iou/errors"
	"github.com/iov-one/iou/flow"
)

// bufferSize is the number of messages a session holds in one direction
// before Send blocks.
const bufferSize = 16

// Handler serves a session opened by another party. It runs in its own
// goroutine.
type Handler func(ctx context.Context, s flow.Session) error

// Network connects registered parties. It is safe for concurrent use.
type Network struct {
	ctx context.Context

	mu       sync.Mutex
	handlers map[string]entry
	wg       sync.WaitGroup
}

type entry struct {
	party   iou.Party
	handler Handler
}

// New returns an empty network. Handlers run with ctx, which also carries
// their logger.
func New(ctx context.Context) *Network {
	return &Network{ctx: ctx, handlers: make(map[string]entry)}
}

// Register makes p reachable. Sessions opened with p are passed to h.
func (n *Network) Register(p iou.Party, h Handler) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.handlers[p.Name]; ok {
		return errors.Wrapf(errors.ErrDuplicate, "party %q", p.Name)
	}
	n.handlers[p.Name] = entry{party: p, handler: h}
	return nil
}

// Opener returns the session opener used by party from.
func (n *Network) Opener(from iou.Party) flow.SessionOpener {
	return &opener{net: n, from: from}
}

// Wait blocks until every handler started so far returned.
func (n *Network) Wait() {
	n.wg.Wait()
}

type opener struct {
	net  *Network
	from iou.Party
}

func (o *opener) OpenSession(ctx context.Context, with iou.Party) (flow.Session, error) {
	o.net.mu.Lock()
	e, ok := o.net.handlers[with.Name]
	o.net.mu.Unlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrSession, "%s is not reachable", with.Name)
	}
	if !e.party.Equals(with) {
		return nil, errors.Wrapf(errors.ErrSession, "%s is known under another key", with.Name)
	}

	c := &conversation{
		toPeer:   make(chan []byte, bufferSize),
		fromPeer: make(chan []byte, bufferSize),
		done:     make(chan struct{}),
	}
	local := &session{conv: c, peer: with, in: c.fromPeer, out: c.toPeer}
	remote := &session{conv: c, peer: o.from, in: c.toPeer, out: c.fromPeer}

	o.net.wg.Add(1)
	go func() {
		defer o.net.wg.Done()
		logger := iou.GetLogger(o.net.ctx)
		if err := e.handler(o.net.ctx, remote); err != nil {
			logger.Debug("session handler failed", "party", with.Name, "from", o.from.Name, "err", err)
		}
	}()
	return local, nil
}

// conversation is the state shared by both ends of a session.
type conversation struct {
	toPeer   chan []byte
	fromPeer chan []byte
	done     chan struct{}
	once     sync.Once
}

func (c *conversation) close() {
	c.once.Do(func() { close(c.done) })
}

type session struct {
	conv *conversation
	peer iou.Party
	in   <-chan []byte
	out  chan<- []byte
}

var _ flow.Session = (*session)(nil)

func (s *session) Counterparty() iou.Party {
	return s.peer
}

func (s *session) Send(ctx context.Context, msg flow.Message) error {
	bz, err := iou.Marshal(msg)
	if err != nil {
		return err
	}
	select {
	case <-s.conv.done:
		return errors.Wrapf(errors.ErrSession, "session with %s is closed", s.peer.Name)
	default:
	}
	select {
	case s.out <- bz:
		return nil
	case <-s.conv.done:
		return errors.Wrapf(errors.ErrSession, "session with %s is closed", s.peer.Name)
	case <-ctx.Done():
		return errors.Wrapf(errors.ErrSession, "send to %s: %s", s.peer.Name, ctx.Err())
	}
}

// Receive returns messages sent before the session was closed, even when
// called after that.
func (s *session) Receive(ctx context.Context) (flow.Message, error) {
	select {
	case bz := <-s.in:
		return decode(bz)
	default:
	}
	select {
	case bz := <-s.in:
		return decode(bz)
	case <-s.conv.done:
		select {
		case bz := <-s.in:
			return decode(bz)
		default:
			return nil, errors.Wrapf(errors.ErrSession, "session with %s is closed", s.peer.Name)
		}
	case <-ctx.Done():
		return nil, errors.Wrapf(errors.ErrSession, "receive from %s: %s", s.peer.Name, ctx.Err())
	}
}

func (s *session) Close() error {
	s.conv.close()
	return nil
}

func decode(bz []byte) (flow.Message, error) {
	var msg flow.Message
	if err := iou.Unmarshal(bz, &msg); err != nil {
		return nil, errors.Wrap(errors.ErrSession, err.Error())
	}
	return msg, nil
}
