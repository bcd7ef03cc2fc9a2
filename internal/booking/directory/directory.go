// Package directory serves cooperators and services from a TTL cache and handles directory writes.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DenisKhanov/BookingBot/internal/booking/models"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnavailable wraps any failure to read the directory store.
	ErrUnavailable = errors.New("directory data unavailable")
	// ErrInvalid is returned for directory writes that fail validation.
	ErrInvalid = errors.New("invalid directory entry")
)

// Repository defines the directory store operations.
type Repository interface {
	ListCooperators(ctx context.Context) ([]models.Cooperator, error)
	ListServicesByCooperator(ctx context.Context, cooperatorID int64) ([]models.Service, error)
	GetCooperator(ctx context.Context, id int64) (*models.Cooperator, error)
	GetService(ctx context.Context, id int64) (*models.Service, error)
	InsertCooperator(ctx context.Context, c models.Cooperator) error
	InsertService(ctx context.Context, s models.Service) error
}

// Directory reads cooperators and services through a cache and writes them through to the store.
type Directory struct {
	repo        Repository
	cooperators *Cache[struct{}, []models.Cooperator]
	services    *Cache[int64, []models.Service]
	maxDuration time.Duration // longest service that fits into a working day
}

// NewDirectory creates a Directory.
// Arguments:
//   - repo: directory store.
//   - ttl: cache entry lifetime.
//   - workday: length of the working day, the upper bound of a service duration.
//   - now: clock used for expiry, time.Now when nil.
//
// Returns a pointer to a Directory.
func NewDirectory(repo Repository, ttl, workday time.Duration, now Clock) *Directory {
	return &Directory{
		repo:        repo,
		cooperators: NewCache[struct{}, []models.Cooperator](ttl, now),
		services:    NewCache[int64, []models.Service](ttl, now),
		maxDuration: workday,
	}
}

// GetCooperators returns all cooperators with their services.
func (d *Directory) GetCooperators(ctx context.Context, force bool) ([]models.Cooperator, error) {
	list, err := d.cooperators.Get(ctx, struct{}{}, force, func(ctx context.Context) ([]models.Cooperator, error) {
		logrus.Debug("Loading cooperators from store")
		return d.repo.ListCooperators(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return list, nil
}

// GetServicesByCooperator returns the services offered by the cooperator.
func (d *Directory) GetServicesByCooperator(ctx context.Context, cooperatorID int64, force bool) ([]models.Service, error) {
	list, err := d.services.Get(ctx, cooperatorID, force, func(ctx context.Context) ([]models.Service, error) {
		logrus.Debugf("Loading services of cooperator %d from store", cooperatorID)
		return d.repo.ListServicesByCooperator(ctx, cooperatorID)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return list, nil
}

// AddCooperator stores a new cooperator and evicts the cooperator list.
func (d *Directory) AddCooperator(ctx context.Context, c models.Cooperator) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.ID <= 0 || c.BranchID <= 0 || c.Name == "" {
		return fmt.Errorf("%w: cooperator needs positive id, branch id and a name", ErrInvalid)
	}

	existing, err := d.repo.GetCooperator(ctx, c.ID)
	switch {
	case err == nil && existing != nil:
		return fmt.Errorf("cooperator %d: %w", c.ID, models.ErrAlreadyExists)
	case err != nil && !errors.Is(err, models.ErrNotFound):
		return err
	}

	if err = d.repo.InsertCooperator(ctx, c); err != nil {
		return err
	}
	d.cooperators.Invalidate(struct{}{})
	logrus.Infof("Cooperator %d %q added", c.ID, c.Name)
	return nil
}

// AddService stores a new service and evicts the cached lists that include it.
func (d *Directory) AddService(ctx context.Context, s models.Service) error {
	s.Name = strings.TrimSpace(s.Name)
	if s.ID <= 0 || s.BranchID <= 0 || s.CooperatorID <= 0 || s.Name == "" {
		return fmt.Errorf("%w: service needs positive ids and a name", ErrInvalid)
	}
	if s.Price < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalid)
	}
	if s.Duration <= 0 || time.Duration(s.Duration)*time.Minute > d.maxDuration {
		return fmt.Errorf("%w: duration must be between 1 and %d minutes", ErrInvalid, int(d.maxDuration.Minutes()))
	}

	if _, err := d.repo.GetCooperator(ctx, s.CooperatorID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: cooperator %d does not exist", ErrInvalid, s.CooperatorID)
		}
		return err
	}

	existing, err := d.repo.GetService(ctx, s.ID)
	switch {
	case err == nil && existing != nil:
		return fmt.Errorf("service %d: %w", s.ID, models.ErrAlreadyExists)
	case err != nil && !errors.Is(err, models.ErrNotFound):
		return err
	}

	if err = d.repo.InsertService(ctx, s); err != nil {
		return err
	}
	d.services.Invalidate(s.CooperatorID)
	d.cooperators.Invalidate(struct{}{})
	logrus.Infof("Service %d %q added to cooperator %d", s.ID, s.Name, s.CooperatorID)
	return nil
}
