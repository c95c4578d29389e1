package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/docket/internal/domain/item"
)

// registerTools wires the task tools onto the server. Every handler
// resolves its target first so scope errors surface before any work.
func registerTools(server *sdkmcp.Server, ops Ops) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_items",
		Description: "List tasks in display order for the global list or a workspace partition",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params ListItemsParams) (*sdkmcp.CallToolResult, any, error) {
		target, err := resolveTarget(ctx, ops, params.Scope, params.PartitionKey)
		if err != nil {
			return nil, nil, mapError(err)
		}
		items, err := ops.Items(ctx, target)
		if err != nil {
			return nil, nil, mapError(err)
		}
		return jsonResult(ListItemsResponse{
			Scope:        string(target.Scope),
			PartitionKey: target.Partition,
			Items:        items,
		})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_state",
		Description: "Get the full task state across the global list and all workspace partitions",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ GetStateParams) (*sdkmcp.CallToolResult, any, error) {
		snapshot, err := ops.State(ctx)
		if err != nil {
			return nil, nil, mapError(err)
		}
		return jsonResult(snapshot)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_item",
		Description: "Add a task to the end of the global list or a workspace partition",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params CreateItemParams) (*sdkmcp.CallToolResult, any, error) {
		target, err := resolveTarget(ctx, ops, params.Scope, params.PartitionKey)
		if err != nil {
			return nil, nil, mapError(err)
		}
		created, err := ops.CreateItem(ctx, target, params.Title)
		if err != nil {
			return nil, nil, mapError(err)
		}
		return jsonResult(created)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "edit_item",
		Description: "Replace the title of an existing task",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params EditItemParams) (*sdkmcp.CallToolResult, any, error) {
		target, err := resolveTarget(ctx, ops, params.Scope, params.PartitionKey)
		if err != nil {
			return nil, nil, mapError(err)
		}
		updated, err := ops.EditItem(ctx, target, params.ItemID, params.Title)
		if err != nil {
			return nil, nil, mapError(err)
		}
		return jsonResult(updated)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "toggle_item",
		Description: "Flip a task between active and completed; completing starts the auto-delete countdown when enabled",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params ToggleItemParams) (*sdkmcp.CallToolResult, any, error) {
		target, err := resolveTarget(ctx, ops, params.Scope, params.PartitionKey)
		if err != nil {
			return nil, nil, mapError(err)
		}
		updated, err := ops.ToggleComplete(ctx, target, params.ItemID)
		if err != nil {
			return nil, nil, mapError(err)
		}
		return jsonResult(updated)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "remove_item",
		Description: "Delete a task; the change can be undone for a short window",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params RemoveItemParams) (*sdkmcp.CallToolResult, any, error) {
		target, err := resolveTarget(ctx, ops, params.Scope, params.PartitionKey)
		if err != nil {
			return nil, nil, mapError(err)
		}
		if err := ops.RemoveItem(ctx, target, params.ItemID); err != nil {
			return nil, nil, mapError(err)
		}
		return jsonResult(StatusResponse{Status: "removed"})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "reorder_items",
		Description: "Reorder tasks by id; listed ids come first in the given order, unlisted tasks keep their relative order after them",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params ReorderItemsParams) (*sdkmcp.CallToolResult, any, error) {
		target, err := resolveTarget(ctx, ops, params.Scope, params.PartitionKey)
		if err != nil {
			return nil, nil, mapError(err)
		}
		changed, err := ops.Reorder(ctx, target, params.IDOrder)
		if err != nil {
			return nil, nil, mapError(err)
		}
		return jsonResult(ReorderResponse{Changed: changed})
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "clear_scope",
		Description: "Remove every task in a list; may be declined by the user and can be undone for a short window",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, params ClearScopeParams) (*sdkmcp.CallToolResult, any, error) {
		target, err := resolveTarget(ctx, ops, params.Scope, params.PartitionKey)
		if err != nil {
			return nil, nil, mapError(err)
		}
		outcome, err := ops.ClearScope(ctx, target)
		if err != nil {
			return nil, nil, mapError(err)
		}
		return jsonResult(StatusResponse{Status: string(outcome)})
	})
}

// resolveTarget treats an empty scope as global so agents can omit it.
func resolveTarget(ctx context.Context, ops Ops, scope, partitionKey string) (item.Target, error) {
	s := item.Scope(scope)
	if scope == "" {
		s = item.ScopeGlobal
	}
	return ops.ResolveTarget(ctx, s, partitionKey)
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
