package router

import (
	"context"
	"errors"

	"github.com/rpggio/docket/internal/domain/item"
	"github.com/rpggio/docket/internal/protocol"
)

// Run consumes tagged surface messages until the stream closes or the
// context ends. It is the single pump between the surface host and the
// router, which is what gives inbound intents their arrival order.
func (r *Router) Run(ctx context.Context, inbound <-chan protocol.Tagged) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-inbound:
			if !ok {
				return
			}
			r.HandleInbound(ctx, ev)
		}
	}
}

// HandleInbound dispatches one surface intent. Surfaces get no reply
// channel for intents, so failures are resolved here: invalid or stale
// intents are quietly dropped, infrastructure failures are logged.
// Unknown kinds are ignored to tolerate newer surfaces.
func (r *Router) HandleInbound(ctx context.Context, ev protocol.Tagged) {
	msg := ev.Msg
	switch msg.Kind {
	case protocol.KindReady:
		if err := r.Ready(ctx, ev.Channel); err != nil {
			r.logger.Error("ready rebroadcast failed", "channel", ev.Channel, "error", err)
		}
		return
	case protocol.KindCreateItem, protocol.KindEditItem, protocol.KindToggleComplete,
		protocol.KindRemoveItem, protocol.KindReorder, protocol.KindClearScope:
		// handled below
	default:
		r.logger.Debug("ignoring unknown message kind", "channel", ev.Channel, "kind", msg.Kind)
		return
	}

	target, err := r.ResolveTarget(ctx, msg.Scope, msg.PartitionKey)
	if err != nil {
		r.logger.Debug("dropping intent with unresolvable target",
			"channel", ev.Channel, "kind", msg.Kind, "scope", msg.Scope, "error", err)
		return
	}

	var opErr error
	switch msg.Kind {
	case protocol.KindCreateItem:
		_, opErr = r.CreateItem(ctx, target, msg.Title)
	case protocol.KindEditItem:
		_, opErr = r.EditItem(ctx, target, msg.ItemID, msg.Title)
	case protocol.KindToggleComplete:
		_, opErr = r.ToggleComplete(ctx, target, msg.ItemID)
	case protocol.KindRemoveItem:
		opErr = r.RemoveItem(ctx, target, msg.ItemID)
	case protocol.KindReorder:
		_, opErr = r.Reorder(ctx, target, msg.IDOrder)
	case protocol.KindClearScope:
		_, opErr = r.ClearScope(ctx, target)
	}
	if opErr == nil {
		return
	}
	if isDeclined(opErr) {
		r.logger.Debug("intent declined", "channel", ev.Channel, "kind", msg.Kind, "bucket", target.Key(), "error", opErr)
		return
	}
	r.logger.Error("intent failed", "channel", ev.Channel, "kind", msg.Kind, "bucket", target.Key(), "error", opErr)
}

// isDeclined separates validation and staleness from real failures.
func isDeclined(err error) bool {
	return errors.Is(err, item.ErrEmptyTitle) ||
		errors.Is(err, item.ErrItemNotFound) ||
		errors.Is(err, item.ErrMissingPartition) ||
		errors.Is(err, item.ErrInvalidScope)
}
