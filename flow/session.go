package flow

import (
	"context"
	"time"

	"github.com/iov-one/iou"
	"github.com/iov-one/iou/errors"
)

// Session is an ordered, point to point channel with one counterparty.
//
// Receive blocks until a message arrives or the context is done. Once
// either side closes the session, Receive on the other side returns an
// ErrSession error after every message already sent was delivered.
type Session interface {
	Counterparty() iou.Party
	Send(ctx context.Context, msg Message) error
	Receive(ctx context.Context) (Message, error)
	Close() error
}

// SessionOpener starts sessions with other parties.
type SessionOpener interface {
	OpenSession(ctx context.Context, with iou.Party) (Session, error)
}

// receive waits at most timeout for the next message from s. A zero
// timeout waits as long as ctx allows. A message that does not validate is
// an ErrSession error.
func receive(ctx context.Context, s Session, timeout time.Duration) (Message, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	msg, err := s.Receive(ctx)
	if err != nil {
		if errors.ErrSession.Is(err) {
			return nil, err
		}
		return nil, errors.Wrapf(errors.ErrSession, "receive from %s: %s", s.Counterparty().Name, err)
	}
	if msg == nil {
		return nil, errors.Wrapf(errors.ErrSession, "empty message from %s", s.Counterparty().Name)
	}
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrapf(errors.ErrSession, "malformed %T from %s: %s", msg, s.Counterparty().Name, err)
	}
	return msg, nil
}

func send(ctx context.Context, s Session, msg Message) error {
	if err := s.Send(ctx, msg); err != nil {
		if errors.ErrSession.Is(err) {
			return err
		}
		return errors.Wrapf(errors.ErrSession, "send to %s: %s", s.Counterparty().Name, err)
	}
	return nil
}

func closeAll(sessions []Session) {
	for _, s := range sessions {
		_ = s.Close()
	}
}
