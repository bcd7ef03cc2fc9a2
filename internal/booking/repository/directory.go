package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DenisKhanov/BookingBot/internal/booking/models"
)

// DirectoryRepository stores cooperators and their services.
type DirectoryRepository struct {
	db *DB
}

// NewDirectoryRepository creates a DirectoryRepository on top of db.
func NewDirectoryRepository(db *DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// ListCooperators returns all cooperators ordered by id with their services attached.
func (r *DirectoryRepository) ListCooperators(ctx context.Context) ([]models.Cooperator, error) {
	var cooperators []models.Cooperator
	if err := r.db.SelectContext(ctx, &cooperators,
		`SELECT id, branch_id, name FROM cooperators ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to select cooperators: %w", err)
	}

	var services []models.Service
	if err := r.db.SelectContext(ctx, &services,
		`SELECT id, branch_id, cooperator_id, name, price, duration FROM services ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to select services: %w", err)
	}

	byCooperator := make(map[int64][]models.Service, len(cooperators))
	for _, s := range services {
		byCooperator[s.CooperatorID] = append(byCooperator[s.CooperatorID], s)
	}
	for i := range cooperators {
		cooperators[i].Services = byCooperator[cooperators[i].ID]
	}
	return cooperators, nil
}

// ListServicesByCooperator returns the services offered by one cooperator ordered by id.
func (r *DirectoryRepository) ListServicesByCooperator(ctx context.Context, cooperatorID int64) ([]models.Service, error) {
	var services []models.Service
	query := r.db.Rebind(`SELECT id, branch_id, cooperator_id, name, price, duration
		FROM services WHERE cooperator_id = ? ORDER BY id`)
	if err := r.db.SelectContext(ctx, &services, query, cooperatorID); err != nil {
		return nil, fmt.Errorf("failed to select services of cooperator %d: %w", cooperatorID, err)
	}
	return services, nil
}

// GetCooperator returns the cooperator with the given id or models.ErrNotFound.
func (r *DirectoryRepository) GetCooperator(ctx context.Context, id int64) (*models.Cooperator, error) {
	var c models.Cooperator
	query := r.db.Rebind(`SELECT id, branch_id, name FROM cooperators WHERE id = ?`)
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cooperator %d: %w", id, err)
	}
	return &c, nil
}

// GetService returns the service with the given id or models.ErrNotFound.
func (r *DirectoryRepository) GetService(ctx context.Context, id int64) (*models.Service, error) {
	var s models.Service
	query := r.db.Rebind(`SELECT id, branch_id, cooperator_id, name, price, duration FROM services WHERE id = ?`)
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get service %d: %w", id, err)
	}
	return &s, nil
}

// InsertCooperator stores a new cooperator.
func (r *DirectoryRepository) InsertCooperator(ctx context.Context, c models.Cooperator) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO cooperators (id, branch_id, name) VALUES (:id, :branch_id, :name)`, c)
	if err != nil {
		return fmt.Errorf("failed to insert cooperator %d: %w", c.ID, err)
	}
	return nil
}

// InsertService stores a new service.
func (r *DirectoryRepository) InsertService(ctx context.Context, s models.Service) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO services (id, branch_id, cooperator_id, name, price, duration)
		VALUES (:id, :branch_id, :cooperator_id, :name, :price, :duration)`, s)
	if err != nil {
		return fmt.Errorf("failed to insert service %d: %w", s.ID, err)
	}
	return nil
}
