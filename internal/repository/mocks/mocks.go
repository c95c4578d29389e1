package mocks

import (
	"context"

	"github.com/rpggio/docket/internal/repository"
	"github.com/stretchr/testify/mock"
)

// Mementos is a mock for repository.Mementos.
type Mementos struct {
	mock.Mock
}

func (m *Mementos) ReadGlobal(ctx context.Context) (repository.GlobalEnvelope, error) {
	args := m.Called(ctx)
	env, _ := args.Get(0).(repository.GlobalEnvelope)
	return env, args.Error(1)
}

func (m *Mementos) WriteGlobal(ctx context.Context, env repository.GlobalEnvelope) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}

func (m *Mementos) ReadWorkspace(ctx context.Context) (repository.WorkspaceEnvelope, error) {
	args := m.Called(ctx)
	env, _ := args.Get(0).(repository.WorkspaceEnvelope)
	return env, args.Error(1)
}

func (m *Mementos) WriteWorkspace(ctx context.Context, env repository.WorkspaceEnvelope) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}
