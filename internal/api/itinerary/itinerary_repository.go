package itinerary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-day-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-day-planner/internal/types"
)

const uniqueViolation = "23505"

// DB is the part of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	SaveVenue(ctx context.Context, v types.Venue) (uuid.UUID, error)
	SaveItinerary(ctx context.Context, it *types.Itinerary) (int64, error)
	GetItinerary(ctx context.Context, id int64) (*types.Itinerary, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool DB
}

func NewRepository(pgpool DB, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

// SaveVenue inserts a venue keyed by its external ID. A duplicate insert
// returns the ID of the row that is already there.
func (r *RepositoryImpl) SaveVenue(ctx context.Context, v types.Venue) (uuid.UUID, error) {
	defer observeQuery(ctx, "save_venue", time.Now())

	hours, err := json.Marshal(v.OpeningHours)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode opening hours: %w", err)
	}

	query := `
        INSERT INTO venues (
            external_id, name, address, latitude, longitude, categories,
            rating, user_rating_count, opening_hours, is_outdoor
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
        )
        RETURNING id
    `
	// categories is NOT NULL and pgx encodes a nil slice as NULL
	categories := v.Categories
	if categories == nil {
		categories = []string{}
	}

	var id uuid.UUID
	err = r.pgpool.QueryRow(ctx, query,
		v.ExternalID, v.Name, v.Address, v.Coordinates.Latitude, v.Coordinates.Longitude, categories,
		v.Rating, v.UserRatingCount, hours, v.IsOutdoor,
	).Scan(&id)
	if err == nil {
		return id, nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		countQueryError(ctx, "save_venue")
		r.logger.ErrorContext(ctx, "Failed to save venue", slog.String("external_id", v.ExternalID), slog.Any("error", err))
		return uuid.Nil, fmt.Errorf("failed to save venue: %w", err)
	}

	r.logger.DebugContext(ctx, "Venue already stored", slog.String("external_id", v.ExternalID))
	err = r.pgpool.QueryRow(ctx, `SELECT id FROM venues WHERE external_id = $1`, v.ExternalID).Scan(&id)
	if err != nil {
		countQueryError(ctx, "save_venue")
		r.logger.ErrorContext(ctx, "Failed to fetch existing venue", slog.String("external_id", v.ExternalID), slog.Any("error", err))
		return uuid.Nil, fmt.Errorf("failed to fetch existing venue: %w", err)
	}
	return id, nil
}

// SaveItinerary stores venues first, outside the transaction, so a duplicate
// venue never aborts the itinerary insert.
func (r *RepositoryImpl) SaveItinerary(ctx context.Context, it *types.Itinerary) (int64, error) {
	defer observeQuery(ctx, "save_itinerary", time.Now())
	l := r.logger.With(slog.String("method", "SaveItinerary"))

	venueIDs := make([]*uuid.UUID, len(it.Entries))
	for i, e := range it.Entries {
		if e.Venue.IsPlaceholder || e.Venue.ExternalID == "" {
			continue
		}
		id, err := r.SaveVenue(ctx, e.Venue)
		if err != nil {
			return 0, err
		}
		venueIDs[i] = &id
	}

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		countQueryError(ctx, "save_itinerary")
		l.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return 0, fmt.Errorf("database error beginning transaction: %w", err)
	}

	var id int64
	var createdAt time.Time
	err = tx.QueryRow(ctx, `
        INSERT INTO itineraries (
            title, description, query, date, city_slug, timezone, total_travel_time_minutes
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7
        )
        RETURNING id, created_at
    `, it.Title, it.Description, it.Query, it.Date, it.CitySlug, it.Timezone, it.TotalTravelTimeMinutes,
	).Scan(&id, &createdAt)
	if err != nil {
		_ = tx.Rollback(ctx)
		countQueryError(ctx, "save_itinerary")
		l.ErrorContext(ctx, "Failed to insert itinerary", slog.Any("error", err))
		return 0, fmt.Errorf("failed to insert itinerary: %w", err)
	}

	for i, e := range it.Entries {
		venue, err := json.Marshal(e.Venue)
		if err != nil {
			_ = tx.Rollback(ctx)
			return 0, fmt.Errorf("failed to encode venue: %w", err)
		}
		var substitution []byte
		if e.Substitution != nil {
			if substitution, err = json.Marshal(e.Substitution); err != nil {
				_ = tx.Rollback(ctx)
				return 0, fmt.Errorf("failed to encode substitution: %w", err)
			}
		}
		_, err = tx.Exec(ctx, `
            INSERT INTO itinerary_entries (
                itinerary_id, position, activity, category, venue_id, venue, scheduled_time,
                display_time, duration_minutes, travel_time_to_next_minutes, is_fixed,
                substitution, caveats
            ) VALUES (
                $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
            )
        `, id, e.Position, e.Activity, string(e.Category), venueIDs[i], venue, e.ScheduledTime,
			e.DisplayTime, e.DurationMinutes, e.TravelTimeToNextMinutes, e.IsFixed,
			substitution, e.Caveats,
		)
		if err != nil {
			_ = tx.Rollback(ctx)
			countQueryError(ctx, "save_itinerary")
			l.ErrorContext(ctx, "Failed to insert itinerary entry", slog.Int("position", e.Position), slog.Any("error", err))
			return 0, fmt.Errorf("failed to insert itinerary entry: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		countQueryError(ctx, "save_itinerary")
		l.ErrorContext(ctx, "Failed to commit itinerary", slog.Any("error", err))
		return 0, fmt.Errorf("failed to commit itinerary: %w", err)
	}

	it.ID = id
	it.CreatedAt = createdAt
	l.InfoContext(ctx, "Itinerary saved", slog.Int64("id", id), slog.Int("entries", len(it.Entries)))
	return id, nil
}

// GetItinerary loads an itinerary and its entries. Missing IDs yield types.ErrNotFound.
func (r *RepositoryImpl) GetItinerary(ctx context.Context, id int64) (*types.Itinerary, error) {
	defer observeQuery(ctx, "get_itinerary", time.Now())

	query := `
        SELECT id, title, description, query, date::text, city_slug, timezone,
               total_travel_time_minutes, created_at
        FROM itineraries
        WHERE id = $1
    `
	var it types.Itinerary
	err := r.pgpool.QueryRow(ctx, query, id).Scan(
		&it.ID, &it.Title, &it.Description, &it.Query, &it.Date, &it.CitySlug, &it.Timezone,
		&it.TotalTravelTimeMinutes, &it.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("itinerary %d: %w", id, types.ErrNotFound)
		}
		countQueryError(ctx, "get_itinerary")
		r.logger.ErrorContext(ctx, "Failed to get itinerary", slog.Int64("id", id), slog.Any("error", err))
		return nil, fmt.Errorf("failed to get itinerary: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, `
        SELECT position, activity, category, venue, scheduled_time, display_time,
               duration_minutes, travel_time_to_next_minutes, is_fixed, substitution, caveats
        FROM itinerary_entries
        WHERE itinerary_id = $1
        ORDER BY position
    `, id)
	if err != nil {
		countQueryError(ctx, "get_itinerary")
		r.logger.ErrorContext(ctx, "Failed to get itinerary entries", slog.Int64("id", id), slog.Any("error", err))
		return nil, fmt.Errorf("failed to get itinerary entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e            types.ItineraryEntry
			category     string
			venue        []byte
			substitution []byte
		)
		err := rows.Scan(
			&e.Position, &e.Activity, &category, &venue, &e.ScheduledTime, &e.DisplayTime,
			&e.DurationMinutes, &e.TravelTimeToNextMinutes, &e.IsFixed, &substitution, &e.Caveats,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan itinerary entry", slog.Any("error", err))
			return nil, fmt.Errorf("failed to scan itinerary entry: %w", err)
		}
		e.Category = types.VenueCategory(category)
		if err := json.Unmarshal(venue, &e.Venue); err != nil {
			return nil, fmt.Errorf("failed to decode venue: %w", err)
		}
		if len(substitution) > 0 {
			e.Substitution = &types.Substitution{}
			if err := json.Unmarshal(substitution, e.Substitution); err != nil {
				return nil, fmt.Errorf("failed to decode substitution: %w", err)
			}
		}
		it.Entries = append(it.Entries, e)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating itinerary entry rows", slog.Any("error", err))
		return nil, fmt.Errorf("error iterating itinerary entries: %w", err)
	}
	return &it, nil
}

func observeQuery(ctx context.Context, op string, start time.Time) {
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("query", op)))
}

func countQueryError(ctx context.Context, op string) {
	metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("query", op)))
}
