package repository

import (
	"PetAdoptAPI/internal/entity"
	"PetAdoptAPI/internal/repository/schema"
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

var petColumns = []string{"id", "owner_id", "name", "image_url", "is_available", "created_at"}

type PetRepository struct {
	drv dialect.Driver
}

func NewPetRepository(drv dialect.Driver) *PetRepository {
	return &PetRepository{
		drv: drv,
	}
}

func scanPet(rows entsql.ColumnScanner) (*entity.Pet, error) {
	var (
		p     entity.Pet
		image sql.NullString
	)
	if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &image, &p.IsAvailable, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan pet: %w", err)
	}
	p.ImageURL = nullableString(image)
	return &p, nil
}

func (r *PetRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Pet, error) {
	t := builder.Table(schema.PetsTableName)
	query, args := builder.Select(t.Columns(petColumns...)...).
		From(t).
		Where(entsql.EQ(t.C("id"), id)).
		Query()

	return queryOne(ctx, r.drv, query, args, scanPet)
}

// Create is used by seeding and tests; pet registration itself lives outside this service.
func (r *PetRepository) Create(ctx context.Context, p *entity.Pet) error {
	query, args := builder.Insert(schema.PetsTableName).
		Columns(petColumns...).
		Values(p.ID, p.OwnerID, p.Name, p.ImageURL, p.IsAvailable, p.CreatedAt).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return mapError(err)
	}
	return nil
}
