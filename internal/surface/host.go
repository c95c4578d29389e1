// Package surface connects display surfaces to the core without binding
// either side to a transport. Each channel is one surface slot: a
// transport attaches a send function, the surface announces readiness,
// and the host releases buffered pushes in arrival order from then on.
package surface

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/rpggio/docket/internal/protocol"
)

const (
	// bufferLimit caps per-channel pre-readiness buffering. Beyond it the
	// oldest message is dropped; a fresh snapshot always supersedes stale ones.
	bufferLimit = 256
	// inboundBacklog sizes the channel feeding the router pump.
	inboundBacklog = 128
)

// SendFunc delivers one outbound message to an attached transport. It is
// called with the host lock held and must return quickly; transports queue
// internally and never block here.
type SendFunc func(msg protocol.Outbound) error

// Host owns the channel set. Outbound messages to a channel that has not
// reported ready are buffered and flushed in order when readiness arrives;
// inbound messages are tagged with their channel and handed to a single
// consumer stream.
type Host struct {
	mu       sync.Mutex
	names    []string
	channels map[string]*channelState
	inbound  chan protocol.Tagged
	logger   *slog.Logger
	closed   bool
}

type channelState struct {
	name  string
	gen   uint64
	ready bool
	send  SendFunc
	queue []protocol.Outbound
}

// NewHost creates a host for a fixed set of channels.
func NewHost(channels []string, logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Host{
		names:    append([]string(nil), channels...),
		channels: make(map[string]*channelState, len(channels)),
		inbound:  make(chan protocol.Tagged, inboundBacklog),
		logger:   logger,
	}
	for _, name := range channels {
		h.channels[name] = &channelState{name: name}
	}
	return h
}

// Attach binds a transport to a channel. Attaching always starts a fresh
// not-ready buffering phase, even when the channel had reported ready
// before: a reconnected surface must announce readiness again. The
// returned detach releases this attachment and drops any buffered
// messages; it is a no-op once a newer transport has attached, so a
// lingering handler cannot tear down its replacement.
func (h *Host) Attach(channel string, send SendFunc) (func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.channels[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	if st.send != nil {
		h.logger.Debug("replacing surface transport", "channel", channel)
	}
	st.gen++
	gen := st.gen
	st.send = send
	st.ready = false
	st.queue = nil
	h.logger.Debug("surface attached", "channel", channel)
	return func() { h.detach(channel, gen) }, nil
}

func (h *Host) detach(channel string, gen uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.channels[channel]
	if !ok || st.gen != gen {
		return
	}
	st.send = nil
	st.ready = false
	st.queue = nil
	h.logger.Debug("surface detached", "channel", channel)
}

// Receive accepts an inbound message from a transport. A ready message
// flips the channel to ready and flushes its buffer in order before
// anything newer can be posted. Every message, ready included, is then
// forwarded to the inbound stream for the router.
func (h *Host) Receive(channel string, msg protocol.Inbound) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	st, ok := h.channels[channel]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}

	if msg.Kind == protocol.KindReady && !st.ready {
		st.ready = true
		queued := st.queue
		st.queue = nil
		for i := range queued {
			h.deliverLocked(st, queued[i])
		}
		if len(queued) > 0 {
			h.logger.Debug("flushed buffered messages", "channel", channel, "count", len(queued))
		}
	}

	select {
	case h.inbound <- protocol.Tagged{Channel: channel, Msg: msg}:
	default:
		h.logger.Warn("inbound backlog full, dropping message", "channel", channel, "kind", msg.Kind)
	}
	return nil
}

// Post sends one message to one channel, buffering while the channel is
// not ready.
func (h *Host) Post(channel string, msg protocol.Outbound) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.channels[channel]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	h.postLocked(st, msg)
	return nil
}

// Broadcast sends one message to every channel, applying the same
// per-channel buffering rules as Post.
func (h *Host) Broadcast(msg protocol.Outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, name := range h.names {
		h.postLocked(h.channels[name], msg)
	}
}

// Inbound exposes the tagged inbound stream. It is closed by Close.
func (h *Host) Inbound() <-chan protocol.Tagged {
	return h.inbound
}

// Close shuts the host down: the inbound stream ends and later receives
// are rejected. Buffered outbound messages are discarded.
func (h *Host) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.inbound)
	for _, st := range h.channels {
		st.send = nil
		st.ready = false
		st.queue = nil
	}
}

func (h *Host) postLocked(st *channelState, msg protocol.Outbound) {
	if h.closed {
		return
	}
	if !st.ready {
		if len(st.queue) >= bufferLimit {
			st.queue = st.queue[1:]
			h.logger.Warn("surface buffer full, dropping oldest message", "channel", st.name)
		}
		st.queue = append(st.queue, msg)
		return
	}
	h.deliverLocked(st, msg)
}

func (h *Host) deliverLocked(st *channelState, msg protocol.Outbound) {
	if st.send == nil {
		h.logger.Debug("no transport attached, dropping message", "channel", st.name, "kind", msg.Kind)
		return
	}
	if err := st.send(msg); err != nil {
		h.logger.Warn("surface delivery failed", "channel", st.name, "kind", msg.Kind, "error", err)
	}
}
