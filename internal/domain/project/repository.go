package project

import (
	"context"

	"github.com/google/uuid"
)

// Repository loads projects for pricing
type Repository interface {
	// FindByID finds a project with its pricing mode, openings, panels and
	// components. Returns shared.ErrNotFound when the project does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
}
