package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rpggio/docket/internal/repository"
)

// Storage slots. Global items and the workspace partition map live in two
// independent rows.
const (
	slotGlobal    = "global"
	slotWorkspace = "workspace"
)

// MementoRepository implements repository.Mementos over the mementos
// table. Reads are forgiving: a missing row or an envelope written by a
// different layout version yields the empty default rather than an error,
// so surfaces always start from a renderable state.
type MementoRepository struct {
	db *DB
}

// NewMementoRepository creates a new MementoRepository
func NewMementoRepository(db *DB) *MementoRepository {
	return &MementoRepository{db: db}
}

// ReadGlobal loads the global items envelope.
func (r *MementoRepository) ReadGlobal(ctx context.Context) (repository.GlobalEnvelope, error) {
	empty := repository.GlobalEnvelope{Version: repository.GlobalVersion}

	version, payload, err := r.readSlot(ctx, slotGlobal)
	if errors.Is(err, repository.ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return repository.GlobalEnvelope{}, err
	}
	if version != repository.GlobalVersion {
		return empty, nil
	}

	var env repository.GlobalEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return repository.GlobalEnvelope{}, fmt.Errorf("failed to decode global envelope: %w", err)
	}
	return env, nil
}

// WriteGlobal stores the global items envelope.
func (r *MementoRepository) WriteGlobal(ctx context.Context, env repository.GlobalEnvelope) error {
	return r.writeSlot(ctx, slotGlobal, env.Version, env)
}

// ReadWorkspace loads the workspace partition-map envelope.
func (r *MementoRepository) ReadWorkspace(ctx context.Context) (repository.WorkspaceEnvelope, error) {
	empty := repository.WorkspaceEnvelope{
		Version:    repository.WorkspaceVersion,
		Partitions: map[string][]repository.StoredItem{},
	}

	version, payload, err := r.readSlot(ctx, slotWorkspace)
	if errors.Is(err, repository.ErrNotFound) {
		return empty, nil
	}
	if err != nil {
		return repository.WorkspaceEnvelope{}, err
	}
	if version != repository.WorkspaceVersion {
		return empty, nil
	}

	var env repository.WorkspaceEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return repository.WorkspaceEnvelope{}, fmt.Errorf("failed to decode workspace envelope: %w", err)
	}
	if env.Partitions == nil {
		env.Partitions = map[string][]repository.StoredItem{}
	}
	return env, nil
}

// WriteWorkspace stores the workspace partition-map envelope.
func (r *MementoRepository) WriteWorkspace(ctx context.Context, env repository.WorkspaceEnvelope) error {
	return r.writeSlot(ctx, slotWorkspace, env.Version, env)
}

func (r *MementoRepository) readSlot(ctx context.Context, slot string) (int, []byte, error) {
	query := `SELECT version, payload FROM mementos WHERE slot = ?`

	var version int
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, slot).Scan(&version, &payload)
	if err == sql.ErrNoRows {
		return 0, nil, repository.ErrNotFound
	}
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read slot %q: %w", slot, err)
	}
	return version, payload, nil
}

func (r *MementoRepository) writeSlot(ctx context.Context, slot string, version int, envelope any) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode envelope for slot %q: %w", slot, err)
	}

	query := `
		INSERT INTO mementos (slot, version, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			version = excluded.version,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, slot, version, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", slot, err)
	}
	return nil
}
