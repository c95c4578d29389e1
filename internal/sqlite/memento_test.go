package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/docket/internal/repository"
)

func storedItem(id, title string, pos int) repository.StoredItem {
	at := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	return repository.StoredItem{ID: id, Title: title, Position: pos, CreatedAt: at, UpdatedAt: at}
}

func TestReadGlobalEmptyDatabase(t *testing.T) {
	repo := NewMementoRepository(NewTestDB(t))

	env, err := repo.ReadGlobal(context.Background())
	require.NoError(t, err)
	require.Equal(t, repository.GlobalVersion, env.Version)
	require.Empty(t, env.Items)
}

func TestGlobalEnvelopeRoundTrip(t *testing.T) {
	repo := NewMementoRepository(NewTestDB(t))
	ctx := context.Background()

	want := repository.GlobalEnvelope{
		Version: repository.GlobalVersion,
		Items:   []repository.StoredItem{storedItem("a", "pack snacks", 1), storedItem("b", "load car", 2)},
	}
	require.NoError(t, repo.WriteGlobal(ctx, want))

	got, err := repo.ReadGlobal(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestWriteGlobalOverwritesSlot(t *testing.T) {
	repo := NewMementoRepository(NewTestDB(t))
	ctx := context.Background()

	first := repository.GlobalEnvelope{Version: repository.GlobalVersion, Items: []repository.StoredItem{storedItem("a", "one", 1)}}
	require.NoError(t, repo.WriteGlobal(ctx, first))

	second := repository.GlobalEnvelope{Version: repository.GlobalVersion, Items: []repository.StoredItem{storedItem("b", "two", 1)}}
	require.NoError(t, repo.WriteGlobal(ctx, second))

	got, err := repo.ReadGlobal(ctx)
	require.NoError(t, err)
	require.Equal(t, second, got)
}

func TestReadGlobalVersionMismatchYieldsEmptyDefault(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMementoRepository(db)
	ctx := context.Background()

	// A future layout lands in the slot; this build must not guess at it.
	_, err := db.ExecContext(ctx,
		`INSERT INTO mementos (slot, version, payload) VALUES (?, ?, ?)`,
		"global", repository.GlobalVersion+1, `{"version":2,"items":[{"id":"x"}]}`)
	require.NoError(t, err)

	env, err := repo.ReadGlobal(ctx)
	require.NoError(t, err)
	require.Equal(t, repository.GlobalVersion, env.Version)
	require.Empty(t, env.Items)
}

func TestReadGlobalMalformedPayloadFails(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMementoRepository(db)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO mementos (slot, version, payload) VALUES (?, ?, ?)`,
		"global", repository.GlobalVersion, `{not json`)
	require.NoError(t, err)

	_, err = repo.ReadGlobal(ctx)
	require.ErrorContains(t, err, "decode global envelope")
}

func TestReadWorkspaceEmptyDatabase(t *testing.T) {
	repo := NewMementoRepository(NewTestDB(t))

	env, err := repo.ReadWorkspace(context.Background())
	require.NoError(t, err)
	require.Equal(t, repository.WorkspaceVersion, env.Version)
	require.NotNil(t, env.Partitions)
	require.Empty(t, env.Partitions)
}

func TestWorkspaceEnvelopeRoundTrip(t *testing.T) {
	repo := NewMementoRepository(NewTestDB(t))
	ctx := context.Background()

	want := repository.WorkspaceEnvelope{
		Version: repository.WorkspaceVersion,
		Partitions: map[string][]repository.StoredItem{
			"app": {storedItem("a", "fix login", 1)},
			"lib": {}, // cleared partitions keep their key
		},
	}
	require.NoError(t, repo.WriteWorkspace(ctx, want))

	got, err := repo.ReadWorkspace(ctx)
	require.NoError(t, err)
	require.Equal(t, repository.WorkspaceVersion, got.Version)
	require.Len(t, got.Partitions, 2)
	require.Equal(t, want.Partitions["app"], got.Partitions["app"])
	require.Contains(t, got.Partitions, "lib")
	require.Empty(t, got.Partitions["lib"])
}

func TestReadWorkspaceVersionMismatchYieldsEmptyDefault(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMementoRepository(db)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO mementos (slot, version, payload) VALUES (?, ?, ?)`,
		"workspace", repository.WorkspaceVersion+3, `{}`)
	require.NoError(t, err)

	env, err := repo.ReadWorkspace(ctx)
	require.NoError(t, err)
	require.Equal(t, repository.WorkspaceVersion, env.Version)
	require.Empty(t, env.Partitions)
}

func TestSlotsAreIndependent(t *testing.T) {
	repo := NewMementoRepository(NewTestDB(t))
	ctx := context.Background()

	global := repository.GlobalEnvelope{Version: repository.GlobalVersion, Items: []repository.StoredItem{storedItem("g", "global task", 1)}}
	workspace := repository.WorkspaceEnvelope{
		Version:    repository.WorkspaceVersion,
		Partitions: map[string][]repository.StoredItem{"app": {storedItem("w", "workspace task", 1)}},
	}
	require.NoError(t, repo.WriteGlobal(ctx, global))
	require.NoError(t, repo.WriteWorkspace(ctx, workspace))

	gotGlobal, err := repo.ReadGlobal(ctx)
	require.NoError(t, err)
	require.Equal(t, global, gotGlobal)

	gotWorkspace, err := repo.ReadWorkspace(ctx)
	require.NoError(t, err)
	require.Equal(t, workspace.Partitions, gotWorkspace.Partitions)
}
