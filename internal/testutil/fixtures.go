package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jonathan/cleanops/internal/db"
	"github.com/stretchr/testify/require"
)

// SeedOwner creates a user with one client and returns both ids.
func SeedOwner(t *testing.T, s *MemStore) (userID uuid.UUID, client *db.Client) {
	t.Helper()
	ctx := context.Background()

	userID, err := s.CreateUser(ctx, "Owner", "owner-"+uuid.NewString()+"@example.com", "555-0100", "Sparkle Cleaning")
	require.NoError(t, err)

	client = &db.Client{UserID: userID, Name: "Jane Client", Email: "jane@example.com", Address: "12 High Street"}
	require.NoError(t, s.CreateClient(ctx, client))
	return userID, client
}

// SeedJob creates a one-off scheduled job for the client.
func SeedJob(t *testing.T, s *MemStore, userID uuid.UUID, client *db.Client, date db.Date) *db.Job {
	t.Helper()
	job := &db.Job{
		UserID:        userID,
		ClientID:      client.ID,
		Title:         "End of tenancy clean",
		ScheduledDate: date,
		ScheduledTime: "09:00",
		Status:        db.StatusScheduled,
	}
	require.NoError(t, s.CreateJob(context.Background(), job))
	s.mu.Lock()
	s.CreateJobCalls = 0
	s.mu.Unlock()
	return job
}
