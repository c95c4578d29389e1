// Package testserver wires a complete docket stack over a throwaway
// in-memory database for functional tests: real store, router, surface
// host, and both the surface HTTP endpoints and the MCP endpoint.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/docket/internal/clock"
	"github.com/rpggio/docket/internal/domain/item"
	"github.com/rpggio/docket/internal/domain/sweep"
	"github.com/rpggio/docket/internal/domain/undo"
	"github.com/rpggio/docket/internal/mcp"
	"github.com/rpggio/docket/internal/protocol"
	"github.com/rpggio/docket/internal/router"
	"github.com/rpggio/docket/internal/sqlite"
	"github.com/rpggio/docket/internal/surface"
	"github.com/rpggio/docket/internal/transport"
	"github.com/rpggio/docket/internal/viewmodel"
)

type TestServer struct {
	Server    *httptest.Server
	DB        *sqlite.DB
	Router    *router.Router
	Host      *surface.Host
	Store     *item.Store
	Clock     *clock.Manual
	Confirmer *ScriptedConfirmer
	Notifier  *RecordingNotifier
}

// Options tweaks the fixture. Zero value gives confirmation on, auto-delete
// on with the default timings, and a single "app" partition.
type Options struct {
	Settings   *router.Settings
	Partitions []string
}

func New(t *testing.T, opts *Options) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	clk := clock.NewManual(time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC))
	store := item.NewStore(sqlite.NewMementoRepository(db), clk, nil)
	catalog := viewmodel.DefaultCatalog()

	settings := router.Settings{
		ConfirmDestructive: true,
		AutoDelete:         sweep.Policy{Enabled: true, Delay: 1500 * time.Millisecond, Fade: 750 * time.Millisecond},
	}
	partitions := []string{"app"}
	if opts != nil {
		if opts.Settings != nil {
			settings = *opts.Settings
		}
		if len(opts.Partitions) > 0 {
			partitions = opts.Partitions
		}
	}

	host := surface.NewHost(protocol.Channels(), nil)
	confirmer := &ScriptedConfirmer{Approve: true}
	notifier := &RecordingNotifier{}

	rt := router.New(router.Config{
		Store:      store,
		Snapshots:  undo.NewManager(nil),
		Builder:    viewmodel.NewBuilder(store, catalog, clk),
		Poster:     host,
		Confirmer:  confirmer,
		Notifier:   notifier,
		Partitions: StaticPartitions(partitions),
		Clock:      clk,
		Catalog:    catalog,
		Settings:   settings,
	})

	pumpCtx, stopPump := context.WithCancel(context.Background())
	go rt.Run(pumpCtx, host.Inbound())

	mcpServer := mcp.NewServer(mcp.Config{Ops: rt})
	mux := transport.NewServer(rt, host, nil)
	mux.Handle("/mcp", sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server { return mcpServer }, nil))

	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		stopPump()
		host.Close()
		rt.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:    server,
		DB:        db,
		Router:    rt,
		Host:      host,
		Store:     store,
		Clock:     clk,
		Confirmer: confirmer,
		Notifier:  notifier,
	}
}

// URL joins a path onto the server base URL.
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}

// StaticPartitions resolves the active partition to the first entry.
type StaticPartitions []string

func (p StaticPartitions) ActivePartition(context.Context) (string, error) {
	if len(p) == 0 {
		return "", nil
	}
	return p[0], nil
}

// ScriptedConfirmer answers destructive prompts with a fixed verdict and
// records the prompts it was shown.
type ScriptedConfirmer struct {
	mu      sync.Mutex
	Approve bool
	prompts []string
}

func (c *ScriptedConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, prompt)
	return c.Approve, nil
}

func (c *ScriptedConfirmer) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.prompts...)
}

// RecordingNotifier captures notices and answers undo offers with Accept.
type RecordingNotifier struct {
	mu     sync.Mutex
	Accept bool
	infos  []string
	offers []string
}

func (n *RecordingNotifier) Info(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, message)
}

func (n *RecordingNotifier) OfferUndo(_ context.Context, message, _ string) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.offers = append(n.offers, message)
	return n.Accept, nil
}

func (n *RecordingNotifier) Infos() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.infos...)
}

func (n *RecordingNotifier) Offers() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.offers...)
}
