package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `docket keeps short task lists synchronized between agents and editor surfaces.

Core concepts (keep this mental model small):
- Bucket: one independently ordered task list. There is a single global bucket plus one bucket per workspace partition.
- Scope: "global" or "workspace". Workspace scope needs a partition_key; omit it to use the active partition.
- Item: a task with title, completed flag, and a dense 1..N position inside its bucket.
- Every mutation is pushed to connected surfaces immediately; there is no separate publish step.

Rules of engagement (default workflow):
1) Orient: call get_state once to see every bucket, or list_items for a single one.
2) Mutate: create_item / edit_item / toggle_item / remove_item / reorder_items.
   - toggle_item to completed starts an auto-delete countdown when the user has it enabled; toggling back cancels it.
   - remove_item and clear_scope offer the user a short undo window, so do not assume the change is final immediately.
3) Destructive ops: clear_scope may ask the user for confirmation and report "declined". Respect that answer; do not retry in a loop.
4) Item ids are stable across edits and reorders. Positions are not; re-list instead of caching positions.

Docs (progressive disclosure):
- docket://docs/index (what to read when)
- docket://docs/concepts (glossary + invariants)
- docket://docs/workflows/sync (how surface sync behaves around your mutations)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "docket://docs/index",
		Name:        "docs_index",
		Title:       "docket docs index",
		Description: "Entry point for agent-facing docs: what exists and what to read when.",
		Content: `# docket: Agent Docs Index

This server is small on purpose. Most work needs no docs beyond the tool descriptions.

## Quick start (no deep docs)

1. ` + "`get_state`" + ` to see every bucket, or ` + "`list_items`" + ` for one.
2. Mutate with ` + "`create_item`" + ` / ` + "`edit_item`" + ` / ` + "`toggle_item`" + ` / ` + "`remove_item`" + ` / ` + "`reorder_items`" + `.
3. ` + "`clear_scope`" + ` empties a bucket; it may be declined by the user.

## Docs (read on demand)

- ` + "`docket://docs/concepts`" + ` — glossary + invariants (buckets, positions, undo, auto-delete).
- ` + "`docket://docs/workflows/sync`" + ` — how editor surfaces see your changes and what that means for you.

## Capabilities & intentional limitations

- There is no bulk-import tool; create items one at a time.
- Undo is offered to the user, not to agents. A removed item may reappear if the user undoes your removal.
`,
	},
	{
		URI:         "docket://docs/concepts",
		Name:        "docs_concepts",
		Title:       "Concepts and invariants",
		Description: "Mental model + invariant rules: buckets, scopes, positions, undo, and auto-delete.",
		Content: `# Concepts and invariants

## Glossary

- **Bucket**: one ordered task list. The global bucket is always present; each workspace partition owns one more.
- **Scope**: ` + "`global`" + ` or ` + "`workspace`" + `. Workspace scope resolves a partition_key; a blank key means the active partition.
- **Item**: ` + "`id`" + `, ` + "`title`" + `, ` + "`completed`" + `, ` + "`position`" + `, plus created/updated timestamps.
- **Position**: dense 1..N ordering inside a bucket. Positions are renumbered after every mutation.

## Invariants

- Item ids are unique and stable for the item's lifetime. Cache ids, never positions.
- Positions in a bucket are always exactly 1..N after a mutation settles.
- Buckets are independent: reordering or clearing one never touches another.
- Titles are trimmed; an empty or whitespace-only title is rejected with ` + "`EMPTY_TITLE`" + `.

## Undo

` + "`remove_item`" + ` and ` + "`clear_scope`" + ` capture a snapshot before mutating and offer the user an undo
for a short window (about ten seconds). If the user accepts, the bucket is restored wholesale,
including changes made after the removal. Re-list after destructive ops if you need certainty.

## Auto-delete

When enabled by the user, completing an item starts a countdown. The surface shows a fade cue,
then the item is removed without an undo offer. Toggling the item back to active cancels the
countdown at any point before removal.
`,
	},
	{
		URI:         "docket://docs/workflows/sync",
		Name:        "docs_workflow_sync",
		Title:       "Workflow: surface synchronization",
		Description: "How editor surfaces receive state and what agents should expect around their mutations.",
		Content: `# Workflow: surface synchronization

Editor surfaces (the panel and the sidebar views) hold no authoritative state. They send
intents and render the state snapshots this server broadcasts.

## What happens on your mutations

1. You call a mutation tool.
2. The server applies it to the store.
3. A fresh state snapshot is broadcast to every connected surface.

There is no publish or flush step for you to call. If a tool returned success, surfaces
either already have the new state or receive it as soon as they finish connecting.

## Readiness

A surface that is still loading buffers nothing on your side: the server queues updates and
flushes them in order once the surface reports ready. Agents never need to wait for surfaces.

## Interplay with user actions

The user can mutate the same buckets concurrently from the surfaces. Treat any cached list
as advisory: re-list before position-sensitive operations like ` + "`reorder_items`" + `,
and handle ` + "`ITEM_NOT_FOUND`" + ` by refreshing rather than retrying blindly.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
