package db

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Client Methods
// -----------------------------------------------------------------------------

const clientColumns = `id, user_id, name, email, phone, address, notes, portal_token, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Phone, &c.Address,
		&c.Notes, &c.PortalToken, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// NewPortalToken returns a random 32-character hex token for the customer portal.
func NewPortalToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate portal token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateClient inserts c, generating a portal token when none is set, and fills in
// the generated id and timestamps.
func (db *DB) CreateClient(ctx context.Context, c *Client) error {
	if c.PortalToken == "" {
		token, err := NewPortalToken()
		if err != nil {
			return err
		}
		c.PortalToken = token
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO clients (user_id, name, email, phone, address, notes, portal_token)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		c.UserID, c.Name, c.Email, c.Phone, c.Address, c.Notes, c.PortalToken,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

// GetClient retrieves a client owned by userID
func (db *DB) GetClient(ctx context.Context, userID, id uuid.UUID) (*Client, error) {
	c, err := scanClient(db.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

// GetClientByPortalToken resolves a customer portal token. It is the only lookup not
// scoped by user.
func (db *DB) GetClientByPortalToken(ctx context.Context, token string) (*Client, error) {
	if token == "" {
		return nil, nil
	}
	c, err := scanClient(db.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE portal_token = $1`, token))
	if err != nil {
		return nil, fmt.Errorf("failed to get client by portal token: %w", err)
	}
	return c, nil
}

// ListClients returns the user's clients ordered by name
func (db *DB) ListClients(ctx context.Context, userID uuid.UUID) ([]Client, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE user_id = $1 ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}

// UpdateClient updates contact fields. Returns false when no client matched.
func (db *DB) UpdateClient(ctx context.Context, c *Client) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE clients SET name = $3, email = $4, phone = $5, address = $6, notes = $7,
		        updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		c.ID, c.UserID, c.Name, c.Email, c.Phone, c.Address, c.Notes,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update client: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteClient removes a client and its jobs. Returns false when no client matched.
func (db *DB) DeleteClient(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete client: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
