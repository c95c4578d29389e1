package mcp

import "github.com/rpggio/docket/internal/domain/item"

// Scope is "global" or "workspace"; an empty scope means global.
// partition_key only applies to workspace scope and falls back to the
// active partition when omitted.

type ListItemsParams struct {
	Scope        string `json:"scope,omitempty"`
	PartitionKey string `json:"partition_key,omitempty"`
}

type GetStateParams struct{}

type CreateItemParams struct {
	Scope        string `json:"scope,omitempty"`
	PartitionKey string `json:"partition_key,omitempty"`
	Title        string `json:"title"`
}

type EditItemParams struct {
	Scope        string `json:"scope,omitempty"`
	PartitionKey string `json:"partition_key,omitempty"`
	ItemID       string `json:"item_id"`
	Title        string `json:"title"`
}

type ToggleItemParams struct {
	Scope        string `json:"scope,omitempty"`
	PartitionKey string `json:"partition_key,omitempty"`
	ItemID       string `json:"item_id"`
}

type RemoveItemParams struct {
	Scope        string `json:"scope,omitempty"`
	PartitionKey string `json:"partition_key,omitempty"`
	ItemID       string `json:"item_id"`
}

type ReorderItemsParams struct {
	Scope        string   `json:"scope,omitempty"`
	PartitionKey string   `json:"partition_key,omitempty"`
	IDOrder      []string `json:"id_order"`
}

type ClearScopeParams struct {
	Scope        string `json:"scope,omitempty"`
	PartitionKey string `json:"partition_key,omitempty"`
}

type ListItemsResponse struct {
	Scope        string      `json:"scope"`
	PartitionKey string      `json:"partition_key,omitempty"`
	Items        []item.Item `json:"items"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ReorderResponse struct {
	Changed bool `json:"changed"`
}
