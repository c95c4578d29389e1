// Package protocol defines the wire messages exchanged with display
// surfaces. Inbound messages are intents a surface sends; outbound
// messages are pushes from the core. Both sides tolerate fields they do
// not use, and unknown kinds are dropped by the receiver rather than
// treated as errors, so surfaces and core can rev independently.
package protocol

import (
	"github.com/rpggio/docket/internal/domain/item"
	"github.com/rpggio/docket/internal/viewmodel"
)

// Kind discriminates message payloads.
type Kind string

// Inbound kinds.
const (
	// KindReady is sent once a surface has rendered and can accept pushes.
	KindReady          Kind = "ready"
	KindCreateItem     Kind = "createItem"
	KindEditItem       Kind = "editItem"
	KindToggleComplete Kind = "toggleComplete"
	KindRemoveItem     Kind = "removeItem"
	KindReorder        Kind = "reorder"
	KindClearScope     Kind = "clearScope"
)

// Outbound kinds.
const (
	KindStateUpdate       Kind = "stateUpdate"
	KindStartInlineCreate Kind = "startInlineCreate"
	KindStartInlineEdit   Kind = "startInlineEdit"
	KindAutoDeleteCue     Kind = "autoDeleteCue"
)

// Inbound is a surface-to-core intent. Only the fields relevant to the
// kind are populated; the rest stay zero.
type Inbound struct {
	Kind         Kind       `json:"kind"`
	Channel      string     `json:"channel,omitempty"`
	Scope        item.Scope `json:"scope,omitempty"`
	PartitionKey string     `json:"partitionKey,omitempty"`
	ItemID       string     `json:"itemId,omitempty"`
	Title        string     `json:"title,omitempty"`
	IDOrder      []string   `json:"idOrder,omitempty"`
}

// Outbound is a core-to-surface push.
type Outbound struct {
	Kind         Kind                `json:"kind"`
	Snapshot     *viewmodel.Snapshot `json:"snapshot,omitempty"`
	Scope        item.Scope          `json:"scope,omitempty"`
	PartitionKey string              `json:"partitionKey,omitempty"`
	ItemID       string              `json:"itemId,omitempty"`
	DurationMs   int                 `json:"durationMs,omitempty"`
}

// Tagged pairs an inbound message with the channel it arrived on.
type Tagged struct {
	Channel string
	Msg     Inbound
}
