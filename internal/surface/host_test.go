package surface_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/docket/internal/protocol"
	"github.com/rpggio/docket/internal/surface"
)

type recordingSend struct {
	msgs []protocol.Outbound
}

func (r *recordingSend) send(msg protocol.Outbound) error {
	r.msgs = append(r.msgs, msg)
	return nil
}

func kinds(msgs []protocol.Outbound) []protocol.Kind {
	out := make([]protocol.Kind, len(msgs))
	for i, m := range msgs {
		out[i] = m.Kind
	}
	return out
}

func newHost(t *testing.T) *surface.Host {
	t.Helper()
	h := surface.NewHost(protocol.Channels(), nil)
	t.Cleanup(h.Close)
	return h
}

func attach(t *testing.T, h *surface.Host, channel string, send surface.SendFunc) func() {
	t.Helper()
	detach, err := h.Attach(channel, send)
	require.NoError(t, err)
	return detach
}

func ready() protocol.Inbound {
	return protocol.Inbound{Kind: protocol.KindReady, Channel: protocol.ChannelGlobal}
}

func TestPostBuffersUntilReadyThenFlushesInOrder(t *testing.T) {
	h := newHost(t)
	rec := &recordingSend{}
	attach(t, h, protocol.ChannelGlobal, rec.send)

	require.NoError(t, h.Post(protocol.ChannelGlobal, protocol.Outbound{Kind: protocol.KindStateUpdate}))
	require.NoError(t, h.Post(protocol.ChannelGlobal, protocol.Outbound{Kind: protocol.KindAutoDeleteCue}))
	require.Empty(t, rec.msgs, "messages before readiness stay buffered")

	require.NoError(t, h.Receive(protocol.ChannelGlobal, ready()))
	require.Equal(t, []protocol.Kind{protocol.KindStateUpdate, protocol.KindAutoDeleteCue}, kinds(rec.msgs))

	require.NoError(t, h.Post(protocol.ChannelGlobal, protocol.Outbound{Kind: protocol.KindStartInlineCreate}))
	require.Len(t, rec.msgs, 3, "post-readiness messages deliver immediately")
}

func TestAttachStartsFreshBufferingPhase(t *testing.T) {
	h := newHost(t)
	first := &recordingSend{}
	attach(t, h, protocol.ChannelGlobal, first.send)
	require.NoError(t, h.Receive(protocol.ChannelGlobal, ready()))

	require.NoError(t, h.Post(protocol.ChannelGlobal, protocol.Outbound{Kind: protocol.KindStateUpdate}))
	require.Len(t, first.msgs, 1)

	// A re-attach models the surface being torn down and resolved again:
	// earlier readiness no longer counts.
	second := &recordingSend{}
	attach(t, h, protocol.ChannelGlobal, second.send)
	require.NoError(t, h.Post(protocol.ChannelGlobal, protocol.Outbound{Kind: protocol.KindStateUpdate}))
	require.Empty(t, second.msgs)

	require.NoError(t, h.Receive(protocol.ChannelGlobal, ready()))
	require.Len(t, second.msgs, 1)
	require.Len(t, first.msgs, 1, "old transport sees nothing after replacement")
}

func TestDetachDropsBufferedMessages(t *testing.T) {
	h := newHost(t)
	rec := &recordingSend{}
	detach := attach(t, h, protocol.ChannelGlobal, rec.send)
	require.NoError(t, h.Post(protocol.ChannelGlobal, protocol.Outbound{Kind: protocol.KindStateUpdate}))

	detach()

	attach(t, h, protocol.ChannelGlobal, rec.send)
	require.NoError(t, h.Receive(protocol.ChannelGlobal, ready()))
	require.Empty(t, rec.msgs, "detach discards the pending buffer")
}

func TestStaleDetachLeavesReplacementAttached(t *testing.T) {
	h := newHost(t)
	old := &recordingSend{}
	staleDetach := attach(t, h, protocol.ChannelGlobal, old.send)

	replacement := &recordingSend{}
	attach(t, h, protocol.ChannelGlobal, replacement.send)
	require.NoError(t, h.Receive(protocol.ChannelGlobal, ready()))

	// The old handler tears down after its replacement already attached.
	staleDetach()

	require.NoError(t, h.Post(protocol.ChannelGlobal, protocol.Outbound{Kind: protocol.KindStateUpdate}))
	require.Len(t, replacement.msgs, 1, "replacement attachment survives the stale detach")
	require.Empty(t, old.msgs)
}

func TestReceiveForwardsTaggedMessages(t *testing.T) {
	h := newHost(t)
	msg := protocol.Inbound{Kind: protocol.KindCreateItem, Title: "track shipment"}

	require.NoError(t, h.Receive(protocol.ChannelProjects, msg))

	ev := <-h.Inbound()
	require.Equal(t, protocol.ChannelProjects, ev.Channel)
	require.Equal(t, protocol.KindCreateItem, ev.Msg.Kind)
	require.Equal(t, "track shipment", ev.Msg.Title)
}

func TestReadyMessageIsForwardedToo(t *testing.T) {
	h := newHost(t)
	require.NoError(t, h.Receive(protocol.ChannelGlobal, ready()))

	ev := <-h.Inbound()
	require.Equal(t, protocol.KindReady, ev.Msg.Kind)
}

func TestUnknownChannelIsRejected(t *testing.T) {
	h := newHost(t)

	err := h.Post("sidebar", protocol.Outbound{Kind: protocol.KindStateUpdate})
	require.ErrorIs(t, err, surface.ErrUnknownChannel)

	err = h.Receive("sidebar", ready())
	require.ErrorIs(t, err, surface.ErrUnknownChannel)

	_, err = h.Attach("sidebar", (&recordingSend{}).send)
	require.ErrorIs(t, err, surface.ErrUnknownChannel)
}

func TestBroadcastHonorsPerChannelReadiness(t *testing.T) {
	h := newHost(t)
	global := &recordingSend{}
	projects := &recordingSend{}
	attach(t, h, protocol.ChannelGlobal, global.send)
	attach(t, h, protocol.ChannelProjects, projects.send)
	require.NoError(t, h.Receive(protocol.ChannelGlobal, ready()))

	h.Broadcast(protocol.Outbound{Kind: protocol.KindStateUpdate})

	require.Len(t, global.msgs, 1)
	require.Empty(t, projects.msgs, "not-ready channel keeps buffering")

	require.NoError(t, h.Receive(protocol.ChannelProjects, protocol.Inbound{Kind: protocol.KindReady}))
	require.Len(t, projects.msgs, 1)
}

func TestCloseEndsInboundStreamAndRejectsReceives(t *testing.T) {
	h := surface.NewHost(protocol.Channels(), nil)
	require.NoError(t, h.Receive(protocol.ChannelGlobal, ready()))

	h.Close()

	_, open := <-h.Inbound()
	require.True(t, open, "message queued before close is still readable")
	_, open = <-h.Inbound()
	require.False(t, open, "stream ends after drain")

	err := h.Receive(protocol.ChannelGlobal, ready())
	require.ErrorIs(t, err, surface.ErrClosed)
}

func TestDuplicateReadyIsHarmless(t *testing.T) {
	h := newHost(t)
	rec := &recordingSend{}
	attach(t, h, protocol.ChannelGlobal, rec.send)

	require.NoError(t, h.Receive(protocol.ChannelGlobal, ready()))
	require.NoError(t, h.Receive(protocol.ChannelGlobal, ready()))

	require.NoError(t, h.Post(protocol.ChannelGlobal, protocol.Outbound{Kind: protocol.KindStateUpdate}))
	require.Len(t, rec.msgs, 1)
}
