package db

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/veyrn/ravenfell/internal/faction"
)

// AffiliationRepository persists actor affiliation snapshots. The snapshot
// body is stored as an opaque versioned JSON payload; the version column is
// checked before decoding so schema drift surfaces as an error instead of a
// half-decoded record.
type AffiliationRepository struct {
	pool *pgxpool.Pool
}

// NewAffiliationRepository creates a new affiliation repository.
func NewAffiliationRepository(pool *pgxpool.Pool) *AffiliationRepository {
	return &AffiliationRepository{pool: pool}
}

// Save upserts the snapshot for an actor key. The run ID records which
// server run last wrote the row.
func (r *AffiliationRepository) Save(ctx context.Context, actorKey string, snap faction.Snapshot, runID uuid.UUID) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding affiliation snapshot for %q: %w", actorKey, err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO affiliations (actor_key, version, payload, run_id, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (actor_key) DO UPDATE SET
		   version    = EXCLUDED.version,
		   payload    = EXCLUDED.payload,
		   run_id     = EXCLUDED.run_id,
		   updated_at = EXCLUDED.updated_at`,
		actorKey, snap.Version, payload, runID)
	if err != nil {
		return fmt.Errorf("upsert affiliation %q: %w", actorKey, err)
	}
	return nil
}

// Load fetches the snapshot for an actor key. Returns found=false when no
// row exists; an unsupported snapshot version is an error so the caller can
// log and fall back to template defaults.
func (r *AffiliationRepository) Load(ctx context.Context, actorKey string) (faction.Snapshot, bool, error) {
	var (
		version int
		payload []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT version, payload FROM affiliations WHERE actor_key = $1`, actorKey,
	).Scan(&version, &payload)
	if err == pgx.ErrNoRows {
		return faction.Snapshot{}, false, nil
	}
	if err != nil {
		return faction.Snapshot{}, false, fmt.Errorf("querying affiliation %q: %w", actorKey, err)
	}

	if version != faction.SnapshotVersion {
		return faction.Snapshot{}, false, fmt.Errorf("affiliation %q: unsupported snapshot version %d", actorKey, version)
	}

	var snap faction.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return faction.Snapshot{}, false, fmt.Errorf("decoding affiliation %q: %w", actorKey, err)
	}
	return snap, true, nil
}

// LoadAll fetches every stored snapshot. Rows with an unsupported version
// are skipped with a warning so one stale record cannot block startup.
func (r *AffiliationRepository) LoadAll(ctx context.Context) (map[string]faction.Snapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT actor_key, version, payload FROM affiliations ORDER BY actor_key`)
	if err != nil {
		return nil, fmt.Errorf("loading affiliations: %w", err)
	}
	defer rows.Close()

	snaps := make(map[string]faction.Snapshot)
	for rows.Next() {
		var (
			key     string
			version int
			payload []byte
		)
		if err := rows.Scan(&key, &version, &payload); err != nil {
			return nil, fmt.Errorf("scanning affiliation row: %w", err)
		}
		if version != faction.SnapshotVersion {
			slog.Warn("skipping affiliation with unsupported snapshot version",
				"actorKey", key, "version", version)
			continue
		}

		var snap faction.Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return nil, fmt.Errorf("decoding affiliation %q: %w", key, err)
		}
		snaps[key] = snap
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating affiliation rows: %w", err)
	}
	return snaps, nil
}
