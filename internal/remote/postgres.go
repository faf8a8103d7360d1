package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sadopc/liftlog/internal/exercise"
)

const schema = `
CREATE TABLE IF NOT EXISTS exercises (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name        TEXT NOT NULL,
	category    TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS exercises_name_lower_idx ON exercises (lower(name));

CREATE TABLE IF NOT EXISTS user_exercises (
	id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id      TEXT NOT NULL,
	exercise_id  UUID NOT NULL REFERENCES exercises(id),
	custom_name  TEXT,
	is_favorite  BOOLEAN NOT NULL DEFAULT false,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, exercise_id)
);

CREATE TABLE IF NOT EXISTS workouts (
	id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id        TEXT NOT NULL,
	exercise_name  TEXT NOT NULL,
	reps           INTEGER NOT NULL CHECK (reps BETWEEN 1 AND 100),
	weight         NUMERIC(6,2) NOT NULL CHECK (weight BETWEEN 0.5 AND 500),
	date           DATE NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS workouts_user_date_idx ON workouts (user_id, date);

CREATE TABLE IF NOT EXISTS body_weights (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id     TEXT NOT NULL,
	weight      NUMERIC(5,2) NOT NULL CHECK (weight BETWEEN 30 AND 300),
	date        DATE NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, date)
);
`

// Postgres writes through a pgx pool into the hosted tables.
type Postgres struct {
	db      *pgxpool.Pool
	session Session
}

func NewPostgres(db *pgxpool.Pool, session Session) *Postgres {
	return &Postgres{
		db:      db,
		session: session,
	}
}

// Connect opens a pool and checks the server is reachable within timeout.
func Connect(ctx context.Context, url string, timeout time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	if timeout > 0 {
		cfg.ConnConfig.ConnectTimeout = timeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) CurrentAccountID(ctx context.Context) (string, bool) {
	return p.session.AccountID(ctx)
}

// EnsureExerciseInLibrary finds or creates the global exercise matching name
// case-insensitively and links it to the account's library.
func (p *Postgres) EnsureExerciseInLibrary(ctx context.Context, name string) (err error) {
	accountID, err := accountOrErr(ctx, p.session)
	if err != nil {
		return err
	}
	name, err = exercise.ValidateName(name)
	if err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	var exerciseID string
	err = tx.QueryRow(ctx,
		`INSERT INTO exercises (name) VALUES ($1)
			ON CONFLICT ((lower(name))) DO UPDATE SET updated_at = exercises.updated_at
			RETURNING id::text;`,
		name,
	).Scan(&exerciseID)
	if err != nil {
		return fmt.Errorf("find or create exercise %q: %w", name, err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_exercises (user_id, exercise_id) VALUES ($1, $2)
			ON CONFLICT (user_id, exercise_id) DO NOTHING;`,
		accountID, exerciseID,
	)
	if err != nil {
		return fmt.Errorf("add exercise to library: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *Postgres) CreateWorkout(ctx context.Context, exerciseName string, reps int, weight float64, date string) (*Workout, error) {
	accountID, err := accountOrErr(ctx, p.session)
	if err != nil {
		return nil, err
	}
	w, err := newWorkout(accountID, exerciseName, reps, weight, date)
	if err != nil {
		return nil, err
	}

	err = p.db.QueryRow(ctx,
		`INSERT INTO workouts (user_id, exercise_name, reps, weight, date)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id::text, weight::float8, created_at;`,
		w.AccountID, w.ExerciseName, w.Reps, w.Weight, w.Date,
	).Scan(&w.ID, &w.Weight, &w.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("save workout: %w", err)
	}
	return w, nil
}

// UpsertBodyWeight keeps one row per account and date, replacing the weight.
func (p *Postgres) UpsertBodyWeight(ctx context.Context, weight float64, date string) (*BodyWeight, error) {
	accountID, err := accountOrErr(ctx, p.session)
	if err != nil {
		return nil, err
	}
	bw, err := newBodyWeight(accountID, weight, date)
	if err != nil {
		return nil, err
	}

	err = p.db.QueryRow(ctx,
		`INSERT INTO body_weights (user_id, weight, date)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, date) DO UPDATE SET weight = excluded.weight, updated_at = now()
			RETURNING id::text, weight::float8, created_at;`,
		bw.AccountID, bw.Weight, bw.Date,
	).Scan(&bw.ID, &bw.Weight, &bw.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("save body weight: %w", err)
	}
	return bw, nil
}

// LibraryNames lists the exercise names linked to the current account.
func (p *Postgres) LibraryNames(ctx context.Context) ([]string, error) {
	accountID, err := accountOrErr(ctx, p.session)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.Query(ctx,
		`SELECT COALESCE(ue.custom_name, e.name)
			FROM user_exercises ue
			JOIN exercises e ON e.id = ue.exercise_id
			WHERE ue.user_id = $1
			ORDER BY 1;`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("query library: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// CountRows returns how many workouts and body weights the account owns.
func (p *Postgres) CountRows(ctx context.Context) (workouts, bodyWeights int, err error) {
	accountID, err := accountOrErr(ctx, p.session)
	if err != nil {
		return 0, 0, err
	}
	err = p.db.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM workouts WHERE user_id = $1),
			(SELECT COUNT(*) FROM body_weights WHERE user_id = $1);`,
		accountID,
	).Scan(&workouts, &bodyWeights)
	if err != nil {
		return 0, 0, fmt.Errorf("count rows: %w", err)
	}
	return workouts, bodyWeights, nil
}
