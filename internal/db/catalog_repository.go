package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/klevoclub/klevo/internal/game/fishing"
	"github.com/klevoclub/klevo/internal/model"
)

// CatalogRepository reads the static content data: locations, species,
// stocking and tackle consumables. Implements fishing.Catalog.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates the repository on the shared pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// Location returns one location by id.
func (r *CatalogRepository) Location(ctx context.Context, id int64) (*model.Location, error) {
	var l model.Location
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, min_rank FROM locations WHERE id = $1`, id,
	).Scan(&l.ID, &l.Name, &l.MinRank)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("location %d: %w", id, fishing.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying location %d: %w", id, err)
	}
	return &l, nil
}

const speciesColumns = `id, name, rarity, weight_min, weight_max, length_min, length_max,
	active_time, preferred_depth_min, preferred_depth_max, sell_price_per_kg, experience_per_kg`

func scanSpecies(row pgx.Row) (*model.FishSpecies, error) {
	var (
		sp     model.FishSpecies
		rarity string
	)
	err := row.Scan(&sp.ID, &sp.Name, &rarity, &sp.WeightMin, &sp.WeightMax,
		&sp.LengthMin, &sp.LengthMax, &sp.ActiveTime,
		&sp.PreferredDepthMin, &sp.PreferredDepthMax,
		&sp.SellPricePerKg, &sp.ExperiencePerKg)
	if err != nil {
		return nil, err
	}
	sp.Rarity = model.Rarity(rarity)
	return &sp, nil
}

// Species returns one species by id.
func (r *CatalogRepository) Species(ctx context.Context, id int64) (*model.FishSpecies, error) {
	sp, err := scanSpecies(r.pool.QueryRow(ctx,
		`SELECT `+speciesColumns+` FROM fish_species WHERE id = $1`, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("species %d: %w", id, fishing.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying species %d: %w", id, err)
	}
	return sp, nil
}

// Stocking returns the species stocked at a location with their spawn
// weights.
func (r *CatalogRepository) Stocking(ctx context.Context, locationID int64) ([]model.Stocking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT lf.spawn_weight, s.id, s.name, s.rarity, s.weight_min, s.weight_max,
			s.length_min, s.length_max, s.active_time,
			s.preferred_depth_min, s.preferred_depth_max, s.sell_price_per_kg, s.experience_per_kg
		 FROM location_fish lf
		 JOIN fish_species s ON s.id = lf.species_id
		 WHERE lf.location_id = $1
		 ORDER BY s.id`,
		locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying stocking for location %d: %w", locationID, err)
	}
	defer rows.Close()

	var stocking []model.Stocking
	for rows.Next() {
		var (
			st     model.Stocking
			sp     model.FishSpecies
			rarity string
		)
		err := rows.Scan(&st.SpawnWeight, &sp.ID, &sp.Name, &rarity, &sp.WeightMin, &sp.WeightMax,
			&sp.LengthMin, &sp.LengthMax, &sp.ActiveTime,
			&sp.PreferredDepthMin, &sp.PreferredDepthMax,
			&sp.SellPricePerKg, &sp.ExperiencePerKg)
		if err != nil {
			return nil, fmt.Errorf("scanning stocking: %w", err)
		}
		sp.Rarity = model.Rarity(rarity)
		st.LocationID = locationID
		st.Species = &sp
		stocking = append(stocking, st)
	}
	return stocking, rows.Err()
}

// Bait returns one bait by id.
func (r *CatalogRepository) Bait(ctx context.Context, id int64) (*model.Bait, error) {
	var b model.Bait
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, target_species, quantity_per_pack FROM baits WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.TargetSpecies, &b.QuantityPerPack)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("bait %d: %w", id, fishing.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying bait %d: %w", id, err)
	}
	return &b, nil
}

// Groundbait returns one groundbait by id.
func (r *CatalogRepository) Groundbait(ctx context.Context, id int64) (*model.Groundbait, error) {
	var g model.Groundbait
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, effectiveness, target_species, duration_hours FROM groundbaits WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.Effectiveness, &g.TargetSpecies, &g.DurationHours)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("groundbait %d: %w", id, fishing.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying groundbait %d: %w", id, err)
	}
	return &g, nil
}

// Flavoring returns one flavoring by id.
func (r *CatalogRepository) Flavoring(ctx context.Context, id int64) (*model.Flavoring, error) {
	var f model.Flavoring
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, bonus_multiplier FROM flavorings WHERE id = $1`, id,
	).Scan(&f.ID, &f.Name, &f.BonusMultiplier)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("flavoring %d: %w", id, fishing.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying flavoring %d: %w", id, err)
	}
	return &f, nil
}
