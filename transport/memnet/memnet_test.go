package memnet_test

import (
	"context"
	"testing"
	"time"

	"github.com/iov-one/iou/errors"
	"github.com/iov-one/iou/flow"
	"github.com/iov-one/iou/iotest"
	"github.com/iov-one/iou/transport/memnet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRoundTrip(t *testing.T) {
	alice := iotest.DerivedIdentity(t, "Alice", 0)
	bob := iotest.DerivedIdentity(t, "Bob", 1)
	ctx := context.Background()
	net := memnet.New(ctx)

	got := make(chan flow.Message, 1)
	require.NoError(t, net.Register(bob.Party, func(ctx context.Context, s flow.Session) error {
		assert.True(t, s.Counterparty().Equals(alice.Party))
		msg, err := s.Receive(ctx)
		if err != nil {
			return err
		}
		got <- msg
		return s.Send(ctx, &flow.Rejection{Reason: "no thanks"})
	}))

	s, err := net.Opener(alice.Party).OpenSession(ctx, bob.Party)
	require.NoError(t, err)
	assert.True(t, s.Counterparty().Equals(bob.Party))

	require.NoError(t, s.Send(ctx, &flow.Rejection{Reason: "hello"}))
	answer, err := s.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, &flow.Rejection{Reason: "no thanks"}, answer)
	assert.Equal(t, &flow.Rejection{Reason: "hello"}, <-got)

	require.NoError(t, s.Close())
	net.Wait()

	err = s.Send(ctx, &flow.Rejection{Reason: "too late"})
	assert.True(t, errors.ErrSession.Is(err))
}

func TestSessionDeliversBeforeClose(t *testing.T) {
	alice := iotest.DerivedIdentity(t, "Alice", 0)
	bob := iotest.DerivedIdentity(t, "Bob", 1)
	ctx := context.Background()
	net := memnet.New(ctx)

	results := make(chan error, 2)
	release := make(chan struct{})
	require.NoError(t, net.Register(bob.Party, func(ctx context.Context, s flow.Session) error {
		<-release
		_, err := s.Receive(ctx)
		results <- err
		_, err = s.Receive(ctx)
		results <- err
		return nil
	}))

	s, err := net.Opener(alice.Party).OpenSession(ctx, bob.Party)
	require.NoError(t, err)
	require.NoError(t, s.Send(ctx, &flow.Rejection{Reason: "last words"}))
	require.NoError(t, s.Close())
	close(release)
	net.Wait()

	assert.NoError(t, <-results, "message sent before close must be delivered")
	assert.True(t, errors.ErrSession.Is(<-results))
}

func TestSessionTimeout(t *testing.T) {
	alice := iotest.DerivedIdentity(t, "Alice", 0)
	bob := iotest.DerivedIdentity(t, "Bob", 1)
	net := memnet.New(context.Background())

	done := make(chan struct{})
	require.NoError(t, net.Register(bob.Party, func(ctx context.Context, s flow.Session) error {
		<-done
		return nil
	}))
	s, err := net.Opener(alice.Party).OpenSession(context.Background(), bob.Party)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Receive(ctx)
	assert.True(t, errors.ErrSession.Is(err))

	close(done)
	net.Wait()
}

func TestOpenSessionErrors(t *testing.T) {
	alice := iotest.DerivedIdentity(t, "Alice", 0)
	bob := iotest.DerivedIdentity(t, "Bob", 1)
	ctx := context.Background()
	net := memnet.New(ctx)
	noop := func(context.Context, flow.Session) error { return nil }
	require.NoError(t, net.Register(bob.Party, noop))

	err := net.Register(bob.Party, noop)
	assert.True(t, errors.ErrDuplicate.Is(err))

	_, err = net.Opener(bob.Party).OpenSession(ctx, alice.Party)
	assert.True(t, errors.ErrSession.Is(err), "alice is not registered")

	impostor := iotest.NewIdentity("Bob")
	_, err = net.Opener(alice.Party).OpenSession(ctx, impostor.Party)
	assert.True(t, errors.ErrSession.Is(err), "bob is known under another key")
}
