package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/partstrader/client_tools/internal/client_tools_service/domain"
)

// Querier is the part of *pgxpool.Pool the repository uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PgExclusionRepository reads the exclusion list from the excluded_parts table.
type PgExclusionRepository struct {
	db     Querier
	logger *slog.Logger
}

func NewPgExclusionRepository(db Querier, logger *slog.Logger) *PgExclusionRepository {
	return &PgExclusionRepository{db: db, logger: logger.With("component", "exclusion_repository_pg")}
}

const selectExclusionsQuery = `SELECT part_number, COALESCE(description, '') FROM excluded_parts ORDER BY part_number`

// LoadExclusions queries the table on every call.
func (r *PgExclusionRepository) LoadExclusions(ctx context.Context) ([]domain.ExclusionRecord, error) {
	rows, err := r.db.Query(ctx, selectExclusionsQuery)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error querying excluded parts", "error", err)
		return nil, fmt.Errorf("querying excluded parts: %w", err)
	}
	defer rows.Close()

	var records []domain.ExclusionRecord
	for rows.Next() {
		var rec domain.ExclusionRecord
		if err := rows.Scan(&rec.PartNumber, &rec.Description); err != nil {
			return nil, fmt.Errorf("scanning excluded part: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating excluded parts: %w", err)
	}

	r.logger.DebugContext(ctx, "Loaded excluded parts", "records", len(records))
	return records, nil
}
