package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-user-accounts/internal/domain/entity"
	"github.com/oksasatya/go-user-accounts/internal/domain/repository"
)

const uniqueViolation = "23505"

const userColumns = `id, name, email, password_hash, is_admin, is_blocked, email_verified, profile_picture, created_at, updated_at`

// DBTX is the subset of pgxpool.Pool used by the repository.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.IsAdmin, &u.IsBlocked,
		&u.EmailVerified, &u.ProfilePicture, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicateEmail
	}
	return err
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, profile_picture)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_admin, is_blocked, email_verified, created_at, updated_at
	`, u.Name, u.Email, u.Password, u.ProfilePicture)

	if err := row.Scan(&u.ID, &u.IsAdmin, &u.IsBlocked, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if err := mapWriteErr(err); errors.Is(err, repository.ErrDuplicateEmail) {
			return err
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.findOne(ctx, `id = $1`, id)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, `email = $1`, email)
}

func (r *UserRepository) list(ctx context.Context, where string, args ...any) ([]entity.User, error) {
	q := `SELECT ` + userColumns + ` FROM users`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += ` ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]entity.User, error) {
	return r.list(ctx, "")
}

// filterClause renders f as a WHERE body with positional args.
func filterClause(f entity.UserFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.IsAdmin != nil {
		args = append(args, *f.IsAdmin)
		conds = append(conds, "is_admin = $"+strconv.Itoa(len(args)))
	}
	if f.IsBlocked != nil {
		args = append(args, *f.IsBlocked)
		conds = append(conds, "is_blocked = $"+strconv.Itoa(len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func (r *UserRepository) FindByFilter(ctx context.Context, f entity.UserFilter) ([]entity.User, error) {
	where, args := filterClause(f)
	return r.list(ctx, where, args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns q into an ILIKE pattern that matches it literally.
func containsPattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

func (r *UserRepository) SearchByNameOrEmail(ctx context.Context, q string) ([]entity.User, error) {
	return r.list(ctx, `name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\'`, containsPattern(q))
}

// setClause renders the non-nil fields of p as SET assignments.
func setClause(p entity.UserPatch) (string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Email != nil {
		add("email", *p.Email)
	}
	if p.Password != nil {
		add("password_hash", *p.Password)
	}
	if p.ProfilePicture != nil {
		add("profile_picture", *p.ProfilePicture)
	}
	if p.IsAdmin != nil {
		add("is_admin", *p.IsAdmin)
	}
	if p.IsBlocked != nil {
		add("is_blocked", *p.IsBlocked)
	}
	if p.EmailVerified != nil {
		add("email_verified", *p.EmailVerified)
	}
	sets = append(sets, "updated_at = now()")
	return strings.Join(sets, ", "), args
}

func (r *UserRepository) UpdateByID(ctx context.Context, id string, patch entity.UserPatch) (*entity.User, error) {
	if !validID(id) {
		return nil, nil
	}
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}
	set, args := setClause(patch)
	args = append(args, id)
	row := r.db.QueryRow(ctx,
		`UPDATE users SET `+set+` WHERE id = $`+strconv.Itoa(len(args))+` RETURNING `+userColumns,
		args...)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if err := mapWriteErr(err); errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	res, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return res.RowsAffected() > 0, nil
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

var _ repository.UserRepository = (*UserRepository)(nil)
