package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/jonathan/cleanops/internal/reporting"
	"github.com/jonathan/cleanops/internal/scheduling"
	"github.com/jonathan/cleanops/internal/timetrack"
)

// DBClient is the user persistence the auth flows need.
type DBClient interface {
	CreateUser(ctx context.Context, name, email, phone, businessName string) (uuid.UUID, error)
	GetUser(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	CheckEmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// Store is everything the API reads and writes. *db.DB implements it, and so does
// the in-memory store used by the handler tests.
type Store interface {
	DBClient
	scheduling.Store
	reporting.Store
	timetrack.Store

	GetClientByPortalToken(ctx context.Context, token string) (*db.Client, error)
	CreateClient(ctx context.Context, c *db.Client) error
	ListClients(ctx context.Context, userID uuid.UUID) ([]db.Client, error)
	UpdateClient(ctx context.Context, c *db.Client) (bool, error)
	DeleteClient(ctx context.Context, userID, id uuid.UUID) (bool, error)

	ListJobs(ctx context.Context, userID uuid.UUID, filters db.JobFilters) ([]db.Job, error)

	CreateTask(ctx context.Context, userID uuid.UUID, t *db.Task) (bool, error)
	UpdateTask(ctx context.Context, userID uuid.UUID, t *db.Task) (bool, error)
	DeleteTask(ctx context.Context, userID, id uuid.UUID) (bool, error)
	CreatePhoto(ctx context.Context, userID uuid.UUID, p *db.Photo) (bool, error)
	DeletePhoto(ctx context.Context, userID, id uuid.UUID) (bool, error)
	CreateNote(ctx context.Context, userID uuid.UUID, n *db.Note) (bool, error)
	DeleteNote(ctx context.Context, userID, id uuid.UUID) (bool, error)
}

// pinger is implemented by stores that can report connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

var _ Store = (*db.DB)(nil)
