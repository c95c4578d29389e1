package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/docket/internal/domain/item"
	"github.com/rpggio/docket/internal/router"
	"github.com/rpggio/docket/internal/viewmodel"
)

// Ops defines the task operations needed by MCP. Agent mutations travel
// the same paths as surface intents, so every change made here is pushed
// to connected surfaces too.
type Ops interface {
	ResolveTarget(ctx context.Context, scope item.Scope, partitionKey string) (item.Target, error)
	Items(ctx context.Context, target item.Target) ([]item.Item, error)
	State(ctx context.Context) (*viewmodel.Snapshot, error)
	CreateItem(ctx context.Context, target item.Target, title string) (*item.Item, error)
	EditItem(ctx context.Context, target item.Target, itemID, title string) (*item.Item, error)
	ToggleComplete(ctx context.Context, target item.Target, itemID string) (*item.Item, error)
	RemoveItem(ctx context.Context, target item.Target, itemID string) error
	Reorder(ctx context.Context, target item.Target, idOrder []string) (bool, error)
	ClearScope(ctx context.Context, target item.Target) (router.ClearOutcome, error)
}

// Config contains server configuration.
type Config struct {
	Ops    Ops
	Logger *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "docket",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Ops)

	return server
}
