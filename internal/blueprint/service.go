// Package blueprint stores saved container snapshots per user.
package blueprint

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rigkit/rigkit/internal/db"
	"github.com/rigkit/rigkit/internal/snapshot"
	"github.com/rigkit/rigkit/internal/typeid"
)

var (
	ErrNotFound        = errors.New("blueprint not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// Store is the slice of db.Queries the service needs.
type Store interface {
	CreateBlueprint(ctx context.Context, arg db.CreateBlueprintParams) (db.Blueprint, error)
	GetBlueprint(ctx context.Context, id string) (db.Blueprint, error)
	ListBlueprints(ctx context.Context, ownerID string) ([]db.Blueprint, error)
	DeleteBlueprint(ctx context.Context, id string) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type Blueprint struct {
	ID          string `json:"id"`
	OwnerID     string `json:"ownerId"`
	Name        string `json:"name"`
	Bodies      int    `json:"bodies"`
	Constraints int    `json:"constraints"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// Create validates a snapshot in the given format and stores it as JSON.
// An empty name falls back to the snapshot's label.
func (s *Service) Create(ctx context.Context, ownerID, name string, data []byte, format snapshot.Format) (*Blueprint, error) {
	snap, err := snapshot.Unmarshal(data, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = snap.Label
	}
	encoded, err := snapshot.Marshal(snap, snapshot.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	bodies, constraints := snap.Counts()

	row, err := s.store.CreateBlueprint(ctx, db.CreateBlueprintParams{
		ID:          typeid.NewBlueprintID(),
		OwnerID:     ownerID,
		Name:        name,
		Bodies:      int32(bodies),
		Constraints: int32(constraints),
		Snapshot:    encoded,
	})
	if err != nil {
		return nil, fmt.Errorf("create blueprint: %w", err)
	}
	return toBlueprint(row), nil
}

func (s *Service) Get(ctx context.Context, id, userID string) (*Blueprint, error) {
	row, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return toBlueprint(row), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Blueprint, error) {
	rows, err := s.store.ListBlueprints(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list blueprints: %w", err)
	}
	out := make([]Blueprint, len(rows))
	for i, r := range rows {
		out[i] = *toBlueprint(r)
	}
	return out, nil
}

// Snapshot returns the stored snapshot re-encoded in format.
func (s *Service) Snapshot(ctx context.Context, id, userID string, format snapshot.Format) ([]byte, error) {
	row, err := s.owned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if format == snapshot.FormatJSON {
		return row.Snapshot, nil
	}
	snap, err := snapshot.Unmarshal(row.Snapshot, snapshot.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("decode stored snapshot %s: %w", id, err)
	}
	return snapshot.Marshal(snap, format)
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	if err := s.store.DeleteBlueprint(ctx, id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete blueprint: %w", err)
	}
	return nil
}

// Publish stores a JSON snapshot and returns the new blueprint id.
func (s *Service) Publish(ctx context.Context, ownerID, name string, data []byte) (string, error) {
	bp, err := s.Create(ctx, ownerID, name, data, snapshot.FormatJSON)
	if err != nil {
		return "", err
	}
	return bp.ID, nil
}

// Fetch returns a blueprint's snapshot as JSON.
func (s *Service) Fetch(ctx context.Context, id, userID string) ([]byte, error) {
	return s.Snapshot(ctx, id, userID, snapshot.FormatJSON)
}

func (s *Service) owned(ctx context.Context, id, userID string) (db.Blueprint, error) {
	row, err := s.store.GetBlueprint(ctx, id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return db.Blueprint{}, ErrNotFound
		}
		return db.Blueprint{}, fmt.Errorf("get blueprint: %w", err)
	}
	if row.OwnerID != userID {
		return db.Blueprint{}, ErrForbidden
	}
	return row, nil
}

func toBlueprint(b db.Blueprint) *Blueprint {
	return &Blueprint{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		Name:        b.Name,
		Bodies:      int(b.Bodies),
		Constraints: int(b.Constraints),
		CreatedAt:   b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   b.UpdatedAt.Format(time.RFC3339),
	}
}
