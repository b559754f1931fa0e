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

var profileColumns = []string{"id", "full_name", "email", "avatar_url", "created_at"}

type ProfileRepository struct {
	drv dialect.Driver
}

func NewProfileRepository(drv dialect.Driver) *ProfileRepository {
	return &ProfileRepository{
		drv: drv,
	}
}

func scanProfile(rows entsql.ColumnScanner) (*entity.Profile, error) {
	var (
		p            entity.Profile
		name, avatar sql.NullString
	)
	if err := rows.Scan(&p.ID, &name, &p.Email, &avatar, &p.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	p.FullName = nullableString(name)
	p.AvatarURL = nullableString(avatar)
	return &p, nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Profile, error) {
	t := builder.Table(schema.ProfilesTableName)
	query, args := builder.Select(t.Columns(profileColumns...)...).
		From(t).
		Where(entsql.EQ(t.C("id"), id)).
		Query()

	return queryOne(ctx, r.drv, query, args, scanProfile)
}

func (r *ProfileRepository) GetByIDs(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*entity.Profile, error) {
	out := make(map[uuid.UUID]*entity.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	t := builder.Table(schema.ProfilesTableName)
	query, queryArgs := builder.Select(t.Columns(profileColumns...)...).
		From(t).
		Where(entsql.In(t.C("id"), args...)).
		Query()

	profiles, err := queryAll(ctx, r.drv, query, queryArgs, scanProfile)
	if err != nil {
		return nil, err
	}

	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *entity.Profile) (*entity.Profile, error) {
	query, args := builder.Insert(schema.ProfilesTableName).
		Columns(profileColumns...).
		Values(p.ID, p.FullName, p.Email, p.AvatarURL, p.CreatedAt).
		OnConflict(
			entsql.ConflictColumns("email"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("full_name")
				u.SetExcluded("avatar_url")
			}),
		).
		Returning(profileColumns...).
		Query()

	return queryOne(ctx, r.drv, query, args, scanProfile)
}
