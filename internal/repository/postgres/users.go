package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/account-auth/internal/core/domain"
	"github.com/arklim/account-auth/internal/core/port"
	"github.com/arklim/account-auth/internal/repository"
)

const usersTable = "auth.users"

var userColumns = []string{
	"id",
	"name",
	"email",
	"password_hash",
	"role",
	"is_email_verified",
	"two_factor_enabled",
	"two_factor_secret",
	"created_at",
	"updated_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewUserRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{exec: tx, builder: r.builder, now: r.now}
}

// Create inserts a new user row. A taken email yields repository.ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Insert(usersTable).
		Columns(userColumns...).
		Values(
			user.ID,
			user.Name,
			user.Email,
			user.PasswordHash,
			string(user.Role),
			user.IsEmailVerified,
			user.TwoFactorEnabled,
			optionalString(user.TwoFactorSecret),
			user.CreatedAt,
			user.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by exact email match.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// MarkEmailVerified flips is_email_verified on.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update(usersTable).
		Set("is_email_verified", true).
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build verify email sql: %w", err)
	}

	return r.execUpdate(ctx, "mark email verified", stmt, args)
}

// SetTwoFactor stores the enrollment flag and secret together.
func (r *UserRepository) SetTwoFactor(ctx context.Context, id string, enabled bool, secret *string) error {
	stmt, args, err := r.builder.Update(usersTable).
		Set("two_factor_enabled", enabled).
		Set("two_factor_secret", optionalString(secret)).
		Set("updated_at", r.now()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set two factor sql: %w", err)
	}

	return r.execUpdate(ctx, "set two factor", stmt, args)
}

func (r *UserRepository) execUpdate(ctx context.Context, op, stmt string, args []any) error {
	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isInvalidText(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Eq) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From(usersTable).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	user, err := scanUser(r.exec.QueryRow(ctx, stmt, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user   domain.User
		role   string
		secret sql.NullString
	)

	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.IsEmailVerified,
		&user.TwoFactorEnabled,
		&secret,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	user.Role = domain.Role(role)
	if secret.Valid && secret.String != "" {
		value := secret.String
		user.TwoFactorSecret = &value
	}

	return &user, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
