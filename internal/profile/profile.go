// Package profile resolves user display names from the platform's
// user-profile collaborator. The comment system itself never stores names;
// it only joins them into detail views at read time.
package profile

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnknownUser means the collaborator has no profile for the id.
// Read paths fall back to a placeholder instead of failing.
var ErrUnknownUser = errors.New("unknown user")

// Directory looks up display names by user id.
type Directory interface {
	// DisplayName returns "First Last" for the user, or ErrUnknownUser.
	DisplayName(ctx context.Context, userID string) (string, error)
}

// StaticDirectory is a fixed in-memory directory for development and tests.
type StaticDirectory struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{names: make(map[string]string)}
}

// Put registers a user's first and last name.
func (d *StaticDirectory) Put(userID, firstName, lastName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[userID] = joinName(firstName, lastName)
}

func (d *StaticDirectory) DisplayName(_ context.Context, userID string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.names[userID]
	if !ok {
		return "", ErrUnknownUser
	}
	return name, nil
}

// PostgresDirectory reads the shared user_profiles table.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

func (d *PostgresDirectory) DisplayName(ctx context.Context, userID string) (string, error) {
	const q = `SELECT first_name, last_name FROM user_profiles WHERE user_id = $1`
	var first, last string
	err := d.pool.QueryRow(ctx, q, userID).Scan(&first, &last)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUnknownUser
	}
	if err != nil {
		return "", err
	}
	return joinName(first, last), nil
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
