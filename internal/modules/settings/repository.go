package settings

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a broker name does not exist
var ErrNotFound = errors.New("broker not found")

// Repository handles broker settings database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new settings repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "settings").Logger(),
	}
}

// List returns all brokers ordered by name
func (r *Repository) List() ([]Broker, error) {
	rows, err := r.db.Query("SELECT name, debt FROM brokers ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list brokers: %w", err)
	}
	defer rows.Close()

	var brokers []Broker
	for rows.Next() {
		var b Broker
		if err := rows.Scan(&b.Name, &b.Debt); err != nil {
			return nil, fmt.Errorf("failed to scan broker: %w", err)
		}
		brokers = append(brokers, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brokers: %w", err)
	}

	return brokers, nil
}

// Upsert creates or updates a broker entry
func (r *Repository) Upsert(broker Broker) error {
	if broker.Name == "" {
		return fmt.Errorf("broker name cannot be empty")
	}

	query := `
		INSERT INTO brokers (name, debt) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET debt = excluded.debt
	`

	if _, err := r.db.Exec(query, broker.Name, broker.Debt); err != nil {
		return fmt.Errorf("failed to upsert broker: %w", err)
	}

	r.log.Info().Str("broker", broker.Name).Float64("debt", broker.Debt).Msg("Broker saved")

	return nil
}

// Delete removes a broker entry
func (r *Repository) Delete(name string) error {
	result, err := r.db.Exec("DELETE FROM brokers WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete broker: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
