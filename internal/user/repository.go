package user

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/myrjola/aitrainer/internal/errors"
	"github.com/myrjola/aitrainer/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

// errUniqueViolation is returned by the repository when an email or username is already taken.
var errUniqueViolation = errors.NewSentinel("unique constraint violation")

type repository interface {
	create(ctx context.Context, u NewUser, passwordHash string) (int64, error)
	getByEmail(ctx context.Context, email string) (User, error)
	get(ctx context.Context, id int64) (User, error)
	updateProfile(ctx context.Context, id int64, p Profile) error
	updatePasswordHash(ctx context.Context, id int64, hash string) error
	delete(ctx context.Context, id int64) error
}

type sqliteRepository struct {
	db *sqlite.Database
}

func newSQLiteRepository(db *sqlite.Database) *sqliteRepository {
	return &sqliteRepository{db: db}
}

const selectUser = `
	SELECT id, email, password_hash, first_name, last_name, username, phone, address, zip_code, country,
	       profile_image, role, created_at
	FROM users`

func scanUser(row *sql.Row) (User, error) {
	var (
		u         User
		createdAt string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Username, &u.Phone,
		&u.Address, &u.ZipCode, &u.Country, &u.ProfileImage, &u.Role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	if u.CreatedAt, err = time.Parse(timestampFormat, createdAt); err != nil {
		return User{}, fmt.Errorf("parse created_at: %w", err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func (r *sqliteRepository) create(ctx context.Context, u NewUser, passwordHash string) (int64, error) {
	res, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, username, phone, address, zip_code,
		                   country, profile_image)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Email, passwordHash, u.FirstName, u.LastName, u.Username, u.Phone, u.Address, u.ZipCode, u.Country,
		u.ProfileImage)
	if isUniqueViolation(err) {
		return 0, errUniqueViolation
	}
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (r *sqliteRepository) getByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(r.db.ReadOnly.QueryRowContext(ctx, selectUser+` WHERE email = ?`, email))
}

func (r *sqliteRepository) get(ctx context.Context, id int64) (User, error) {
	return scanUser(r.db.ReadOnly.QueryRowContext(ctx, selectUser+` WHERE id = ?`, id))
}

// updateProfile overwrites only the non-nil fields of p.
func (r *sqliteRepository) updateProfile(ctx context.Context, id int64, p Profile) error {
	res, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE users
		SET first_name    = COALESCE(?, first_name),
		    last_name     = COALESCE(?, last_name),
		    username      = COALESCE(?, username),
		    phone         = COALESCE(?, phone),
		    address       = COALESCE(?, address),
		    zip_code      = COALESCE(?, zip_code),
		    country       = COALESCE(?, country),
		    profile_image = COALESCE(?, profile_image)
		WHERE id = ?`,
		p.FirstName, p.LastName, p.Username, p.Phone, p.Address, p.ZipCode, p.Country, p.ProfileImage, id)
	if isUniqueViolation(err) {
		return errUniqueViolation
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return expectOneRow(res)
}

func (r *sqliteRepository) updatePasswordHash(ctx context.Context, id int64, hash string) error {
	res, err := r.db.ReadWrite.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return expectOneRow(res)
}

func (r *sqliteRepository) delete(ctx context.Context, id int64) error {
	res, err := r.db.ReadWrite.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
