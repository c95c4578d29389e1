package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rpggio/docket/internal/domain/item"
	"github.com/rpggio/docket/internal/protocol"
	"github.com/rpggio/docket/internal/surface"
	"github.com/rpggio/docket/internal/viewmodel"
)

// eventFeedBacklog sizes each event connection's delivery queue. The host
// treats a full queue as a failed delivery and drops that message.
const eventFeedBacklog = 64

// RouterOps is the slice of router behavior the surface endpoints need.
type RouterOps interface {
	State(ctx context.Context) (*viewmodel.Snapshot, error)
	ResolveTarget(ctx context.Context, scope item.Scope, partitionKey string) (item.Target, error)
	RequestInlineCreate(ctx context.Context, target item.Target) error
	RequestInlineEdit(ctx context.Context, target item.Target, itemID string) error
}

// SurfaceHub accepts surface intents and attaches event transports.
type SurfaceHub interface {
	Receive(channel string, msg protocol.Inbound) error
	Attach(channel string, send surface.SendFunc) (func(), error)
}

// Server wires HTTP handlers for surface traffic.
type Server struct {
	ops      RouterOps
	surfaces SurfaceHub
	logger   *slog.Logger
}

// NewServer creates the surface HTTP router. Surfaces post intents to
// /surfaces/{channel}/messages and stream outbound pushes from
// /surfaces/{channel}/events; editor commands use the /actions endpoints.
func NewServer(ops RouterOps, surfaces SurfaceHub, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	srv := &Server{ops: ops, surfaces: surfaces, logger: logger}

	r.Get("/health", srv.handleHealth)
	r.Get("/state", srv.handleState)

	r.Route("/surfaces/{channel}", func(r chi.Router) {
		r.Use(RequireChannel(protocol.Channels()...))
		r.Post("/messages", srv.handleMessage)
		r.Get("/events", srv.handleEvents)
	})

	r.Post("/actions/inline-create", srv.handleInlineCreate)
	r.Post("/actions/inline-edit", srv.handleInlineEdit)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.ops.State(r.Context())
	if err != nil {
		s.logger.Error("failed to build state", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to build state")
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	channel, _ := ChannelFromContext(r.Context())

	var msg protocol.Inbound
	if err := decodeJSON(r, &msg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid message body")
		return
	}

	if err := s.surfaces.Receive(channel, msg); err != nil {
		if errors.Is(err, surface.ErrClosed) {
			respondError(w, http.StatusServiceUnavailable, "surface host is shut down")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, statusBody{Status: "accepted"})
}

// handleEvents holds the connection open and relays outbound pushes as
// server-sent events. The send func runs under the host lock, so it only
// queues; the handler goroutine does the writing.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	channel, _ := ChannelFromContext(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	feed := make(chan protocol.Outbound, eventFeedBacklog)
	detach, err := s.surfaces.Attach(channel, func(msg protocol.Outbound) error {
		select {
		case feed <- msg:
			return nil
		default:
			return fmt.Errorf("event feed for %q is full", channel)
		}
	})
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	defer detach()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-feed:
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("failed to encode outbound message", "kind", msg.Kind, "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

type inlineActionRequest struct {
	Scope        string `json:"scope,omitempty"`
	PartitionKey string `json:"partitionKey,omitempty"`
	ItemID       string `json:"itemId,omitempty"`
}

func (s *Server) handleInlineCreate(w http.ResponseWriter, r *http.Request) {
	var req inlineActionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid action body")
		return
	}

	target, err := s.resolve(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.ops.RequestInlineCreate(r.Context(), target); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, statusBody{Status: "accepted"})
}

func (s *Server) handleInlineEdit(w http.ResponseWriter, r *http.Request) {
	var req inlineActionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid action body")
		return
	}

	target, err := s.resolve(r.Context(), req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.ops.RequestInlineEdit(r.Context(), target, req.ItemID); err != nil {
		if errors.Is(err, item.ErrItemNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusAccepted, statusBody{Status: "accepted"})
}

// resolve maps an action request to a target, defaulting to global scope
// so the panel can omit scope entirely.
func (s *Server) resolve(ctx context.Context, req inlineActionRequest) (item.Target, error) {
	scope := item.Scope(req.Scope)
	if req.Scope == "" {
		scope = item.ScopeGlobal
	}
	return s.ops.ResolveTarget(ctx, scope, req.PartitionKey)
}
