package projections

import (
	"context"
	"fmt"

	"coachdesk/internal/adapters/api"
)

// GetDirectoriesAPI defines the CRM client slice for the directory lists.
type GetDirectoriesAPI interface {
	ListTrainers(ctx context.Context) ([]api.Trainer, error)
	ListClients(ctx context.Context) ([]api.ClientRecord, error)
}

// GetDirectoriesDeps holds dependencies for the directories projection.
type GetDirectoriesDeps struct {
	CRM GetDirectoriesAPI
}

// DirectoriesView populates the trainer and client filter dropdowns.
type DirectoriesView struct {
	Trainers []api.Trainer
	Clients  []api.ClientRecord
}

// QueryGetDirectories fetches both dropdown directories.
// PRE: deps.CRM is non-nil
// POST: Returns both lists, or an error with neither
func QueryGetDirectories(ctx context.Context, deps GetDirectoriesDeps) (DirectoriesView, error) {
	trainers, err := deps.CRM.ListTrainers(ctx)
	if err != nil {
		return DirectoriesView{}, fmt.Errorf("fetch trainers: %w", err)
	}
	clients, err := deps.CRM.ListClients(ctx)
	if err != nil {
		return DirectoriesView{}, fmt.Errorf("fetch clients: %w", err)
	}
	return DirectoriesView{Trainers: trainers, Clients: clients}, nil
}
