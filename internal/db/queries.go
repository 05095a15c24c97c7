package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound  = errors.New("row not found")
	ErrDuplicate = errors.New("duplicate key")
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type User struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
	CreatedAt   time.Time
}

type CreateUserParams struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

type Blueprint struct {
	ID          string
	OwnerID     string
	Name        string
	Bodies      int32
	Constraints int32
	Snapshot    []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateBlueprintParams struct {
	ID          string
	OwnerID     string
	Name        string
	Bodies      int32
	Constraints int32
	Snapshot    []byte
}

const userColumns = `id, email, password, display_name, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.DisplayName, &u.CreatedAt)
	return u, translate(err)
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx,
		`INSERT INTO users (id, email, password, display_name)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		arg.ID, arg.Email, arg.Password, arg.DisplayName,
	))
}

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

const blueprintColumns = `id, owner_id, name, bodies, constraints, snapshot, created_at, updated_at`

func scanBlueprint(row pgx.Row) (Blueprint, error) {
	var b Blueprint
	err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Bodies, &b.Constraints, &b.Snapshot, &b.CreatedAt, &b.UpdatedAt)
	return b, translate(err)
}

func (q *Queries) CreateBlueprint(ctx context.Context, arg CreateBlueprintParams) (Blueprint, error) {
	return scanBlueprint(q.db.QueryRow(ctx,
		`INSERT INTO blueprints (id, owner_id, name, bodies, constraints, snapshot)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+blueprintColumns,
		arg.ID, arg.OwnerID, arg.Name, arg.Bodies, arg.Constraints, arg.Snapshot,
	))
}

func (q *Queries) GetBlueprint(ctx context.Context, id string) (Blueprint, error) {
	return scanBlueprint(q.db.QueryRow(ctx,
		`SELECT `+blueprintColumns+` FROM blueprints WHERE id = $1`, id))
}

// ListBlueprints returns ownerID's blueprints, newest first.
func (q *Queries) ListBlueprints(ctx context.Context, ownerID string) ([]Blueprint, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+blueprintColumns+` FROM blueprints
		 WHERE owner_id = $1
		 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list blueprints: %w", err)
	}
	defer rows.Close()

	var out []Blueprint
	for rows.Next() {
		b, err := scanBlueprint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (q *Queries) DeleteBlueprint(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM blueprints WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
