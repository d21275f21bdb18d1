package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/paradox/internal/game/history"
	"github.com/cory-johannsen/paradox/internal/game/level"
	"github.com/cory-johannsen/paradox/internal/game/paradox"
)

// Recording is one archived timeline: the pose history of a single player
// observer from a finished run.
type Recording struct {
	ID    uuid.UUID
	RunID uuid.UUID
	// LevelID and Checksum identify the level definition the run used.
	LevelID  string
	Checksum uint64
	// Observer is the entity ID the timeline was recorded under.
	Observer uint32
	// State is the observer's final paradox state.
	State     string
	Frames    int
	Poses     []history.Record[paradox.Pose]
	CreatedAt time.Time
}

// ErrRecordingNotFound is returned when a recording lookup yields no results.
var ErrRecordingNotFound = errors.New("recording not found")

// ErrRecordingExists is returned when a run already archived a timeline for
// the same observer.
var ErrRecordingExists = errors.New("recording already exists")

// NewRecording captures the pose history of o.
//
// Precondition: lv and o must be non-nil.
func NewRecording(runID uuid.UUID, lv *level.Level, o *paradox.Observer) Recording {
	return Recording{
		ID:       uuid.New(),
		RunID:    runID,
		LevelID:  lv.ID,
		Checksum: lv.Checksum,
		Observer: uint32(o.ID()),
		State:    o.State().String(),
		Frames:   int(o.Poses().End()),
		Poses:    o.Poses().Export(),
	}
}

// Timeline rebuilds the recorded pose history.
//
// Postcondition: Returns a history whose Get matches the archived observer's
// PoseAt, or an error wrapping history.ErrMalformed.
func (r Recording) Timeline(limits history.Limits) (*history.History[paradox.Pose], error) {
	h, err := history.Restore(limits, r.Poses)
	if err != nil {
		return nil, fmt.Errorf("restoring recording %s: %w", r.ID, err)
	}
	return h, nil
}

// RecordingRepository provides timeline archive persistence operations.
type RecordingRepository struct {
	db *pgxpool.Pool
}

// NewRecordingRepository creates a RecordingRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewRecordingRepository(db *pgxpool.Pool) *RecordingRepository {
	return &RecordingRepository{db: db}
}

// Save inserts rec.
//
// Precondition: rec.ID and rec.RunID must be set; rec.LevelID must be non-empty.
// Postcondition: Returns rec with CreatedAt set, or ErrRecordingExists if the
// run already archived this observer.
func (r *RecordingRepository) Save(ctx context.Context, rec Recording) (Recording, error) {
	poses, err := json.Marshal(rec.Poses)
	if err != nil {
		return Recording{}, fmt.Errorf("encoding poses: %w", err)
	}
	err = r.db.QueryRow(ctx, `
		INSERT INTO recordings (id, run_id, level_id, checksum, observer, state, frames, poses)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		rec.ID, rec.RunID, rec.LevelID, int64(rec.Checksum), int64(rec.Observer),
		rec.State, rec.Frames, poses,
	).Scan(&rec.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Recording{}, ErrRecordingExists
		}
		return Recording{}, fmt.Errorf("inserting recording: %w", err)
	}
	return rec, nil
}

// SaveRun archives every recording of one run in a single transaction.
//
// Postcondition: Either all recordings are stored or none are.
func (r *RecordingRepository) SaveRun(ctx context.Context, recs []Recording) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, rec := range recs {
		poses, err := json.Marshal(rec.Poses)
		if err != nil {
			return fmt.Errorf("encoding poses for recording %s: %w", rec.ID, err)
		}
		batch.Queue(`
			INSERT INTO recordings (id, run_id, level_id, checksum, observer, state, frames, poses)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			rec.ID, rec.RunID, rec.LevelID, int64(rec.Checksum), int64(rec.Observer),
			rec.State, rec.Frames, poses,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if isDuplicateKeyError(err) {
			return ErrRecordingExists
		}
		return fmt.Errorf("inserting recordings: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing recordings: %w", err)
	}
	return nil
}

const recordingColumns = `id, run_id, level_id, checksum, observer, state, frames, poses, created_at`

// GetByID retrieves a recording by its primary key.
//
// Postcondition: Returns the Recording or ErrRecordingNotFound.
func (r *RecordingRepository) GetByID(ctx context.Context, id uuid.UUID) (Recording, error) {
	rec, err := scanRecording(r.db.QueryRow(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Recording{}, ErrRecordingNotFound
		}
		return Recording{}, fmt.Errorf("querying recording: %w", err)
	}
	return rec, nil
}

// ListByRun returns the recordings of one run ordered by observer ID.
func (r *RecordingRepository) ListByRun(ctx context.Context, runID uuid.UUID) ([]Recording, error) {
	return r.list(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE run_id = $1 ORDER BY observer ASC`, runID)
}

// ListByLevel returns the recordings made on a level, newest first.
//
// Precondition: limit must be > 0.
func (r *RecordingRepository) ListByLevel(ctx context.Context, levelID string, limit int) ([]Recording, error) {
	return r.list(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE level_id = $1
		 ORDER BY created_at DESC, observer ASC LIMIT $2`, levelID, limit)
}

func (r *RecordingRepository) list(ctx context.Context, query string, args ...any) ([]Recording, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing recordings: %w", err)
	}
	defer rows.Close()

	recs := make([]Recording, 0)
	for rows.Next() {
		rec, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning recording row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanRecording(row pgx.Row) (Recording, error) {
	var (
		rec      Recording
		checksum int64
		observer int64
		poses    []byte
	)
	if err := row.Scan(
		&rec.ID, &rec.RunID, &rec.LevelID, &checksum, &observer,
		&rec.State, &rec.Frames, &poses, &rec.CreatedAt,
	); err != nil {
		return Recording{}, err
	}
	rec.Checksum = uint64(checksum)
	rec.Observer = uint32(observer)
	if err := json.Unmarshal(poses, &rec.Poses); err != nil {
		return Recording{}, fmt.Errorf("decoding poses: %w", err)
	}
	return rec, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	// pgx wraps PostgreSQL errors; check for SQLSTATE 23505 (unique_violation)
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
