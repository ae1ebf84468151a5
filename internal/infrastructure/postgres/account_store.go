package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/oksasatya/alumni-backend/internal/domain/entity"
	"github.com/oksasatya/alumni-backend/internal/domain/repository"
)

// DB is the subset of *pgxpool.Pool the store needs. pgxmock satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// AccountStore implements repository.AccountStore on PostgreSQL.
type AccountStore struct {
	db DB
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

const selectLinked = `
	SELECT a.id, a.email, a.role, a.otp, a.is_otp_verified, a.is_changing_password,
	       a.is_completed, a.food_preference, a.created_at, a.updated_at,
	       p.id, p.user_id, p.email, p.password_hash, p.name, p.gender, p.roll_number,
	       p.phone_number, p.designation, p.graduation_year, p.address, p.course,
	       p.created_at, p.updated_at
	FROM accounts a
	JOIN profiles p ON p.user_id = a.id
	WHERE a.email = $1
`

func (s *AccountStore) FindByEmail(ctx context.Context, email string) (*entity.Account, *entity.Profile, error) {
	var (
		a                    entity.Account
		p                    entity.Profile
		role, gender, course string
		food                 *string
	)
	err := s.db.QueryRow(ctx, selectLinked, email).Scan(
		&a.ID, &a.Email, &role, &a.OTP, &a.IsOTPVerified, &a.IsChangingPassword,
		&a.IsCompleted, &food, &a.CreatedAt, &a.UpdatedAt,
		&p.ID, &p.UserID, &p.Email, &p.PasswordHash, &p.Name, &gender, &p.RollNumber,
		&p.PhoneNumber, &p.Designation, &p.GraduationYear, &p.Address, &course,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(repository.ErrNotFound)
	}
	if err != nil {
		return nil, nil, oops.Code("ACCOUNT_FIND_FAILED").
			With("operation", "select linked account").
			With("email", email).
			Wrap(err)
	}
	a.Role = entity.Role(role)
	if food != nil {
		fp := entity.FoodPreference(*food)
		a.FoodPreference = &fp
	}
	p.Gender = entity.Gender(gender)
	p.Course = entity.Course(course)
	return &a, &p, nil
}

func (s *AccountStore) CreateLinked(ctx context.Context, a *entity.Account, p *entity.Profile) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt, a.UpdatedAt = now, now
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt, p.UpdatedAt = now, now
	}
	var food *string
	if a.FoodPreference != nil {
		v := string(*a.FoodPreference)
		food = &v
	}

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO accounts (id, email, role, otp, is_otp_verified, is_changing_password,
			                      is_completed, food_preference, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, a.ID, a.Email, string(a.Role), a.OTP, a.IsOTPVerified, a.IsChangingPassword,
			a.IsCompleted, food, a.CreatedAt, a.UpdatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO profiles (id, user_id, email, password_hash, name, gender, roll_number,
			                      phone_number, designation, graduation_year, address, course,
			                      created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, p.ID, p.UserID, p.Email, p.PasswordHash, p.Name, string(p.Gender), p.RollNumber,
			p.PhoneNumber, p.Designation, p.GraduationYear, p.Address, string(p.Course),
			p.CreatedAt, p.UpdatedAt)
		return err
	})
	if isUniqueViolation(err) {
		return oops.Code("ACCOUNT_DUPLICATE_EMAIL").
			With("email", a.Email).
			Wrap(repository.ErrDuplicateEmail)
	}
	if err != nil {
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert linked account").
			With("email", a.Email).
			Wrap(err)
	}
	return nil
}

func (s *AccountStore) MarkOTPVerified(ctx context.Context, email string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE accounts
		SET otp = NULL, is_otp_verified = TRUE, updated_at = now()
		WHERE email = $1
	`, email)
	if err != nil {
		return oops.Code("ACCOUNT_VERIFY_FAILED").With("email", email).Wrap(err)
	}
	return requireRow(tag, email)
}

func (s *AccountStore) BeginPasswordReset(ctx context.Context, email, otp string) error {
	return s.inTx(ctx, "ACCOUNT_RESET_BEGIN_FAILED", email, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE accounts
			SET otp = $2, is_otp_verified = FALSE, is_changing_password = TRUE, updated_at = now()
			WHERE email = $1
		`, email, otp)
		if err != nil {
			return err
		}
		if err := requireRow(tag, email); err != nil {
			return err
		}
		tag, err = tx.Exec(ctx, `
			UPDATE profiles SET password_hash = $2, updated_at = now() WHERE email = $1
		`, email, entity.PasswordResetSentinel)
		if err != nil {
			return err
		}
		return requireRow(tag, email)
	})
}

func (s *AccountStore) CompletePasswordReset(ctx context.Context, email, passwordHash string) error {
	return s.inTx(ctx, "ACCOUNT_RESET_COMPLETE_FAILED", email, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE profiles SET password_hash = $2, updated_at = now() WHERE email = $1
		`, email, passwordHash)
		if err != nil {
			return err
		}
		if err := requireRow(tag, email); err != nil {
			return err
		}
		tag, err = tx.Exec(ctx, `
			UPDATE accounts SET is_changing_password = FALSE, updated_at = now() WHERE email = $1
		`, email)
		if err != nil {
			return err
		}
		return requireRow(tag, email)
	})
}

const updateProfileFields = `
	UPDATE profiles
	SET name = $2, gender = $3, roll_number = $4, phone_number = $5, designation = $6,
	    graduation_year = $7, address = $8, course = $9, updated_at = now()
	WHERE email = $1
`

func profileArgs(p *entity.Profile) []any {
	return []any{p.Email, p.Name, string(p.Gender), p.RollNumber, p.PhoneNumber,
		p.Designation, p.GraduationYear, p.Address, string(p.Course)}
}

func (s *AccountStore) UpdateProfile(ctx context.Context, p *entity.Profile) error {
	tag, err := s.db.Exec(ctx, updateProfileFields, profileArgs(p)...)
	if err != nil {
		return oops.Code("PROFILE_UPDATE_FAILED").With("email", p.Email).Wrap(err)
	}
	return requireRow(tag, p.Email)
}

func (s *AccountStore) CompleteProfile(ctx context.Context, p *entity.Profile, food *entity.FoodPreference) error {
	var foodVal *string
	if food != nil {
		v := string(*food)
		foodVal = &v
	}
	return s.inTx(ctx, "PROFILE_COMPLETE_FAILED", p.Email, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, updateProfileFields, profileArgs(p)...)
		if err != nil {
			return err
		}
		if err := requireRow(tag, p.Email); err != nil {
			return err
		}
		tag, err = tx.Exec(ctx, `
			UPDATE accounts
			SET food_preference = COALESCE($2, food_preference), is_completed = TRUE, updated_at = now()
			WHERE email = $1
		`, p.Email, foodVal)
		if err != nil {
			return err
		}
		return requireRow(tag, p.Email)
	})
}

// DeleteLinked removes the profile before the account inside one transaction.
func (s *AccountStore) DeleteLinked(ctx context.Context, email string) error {
	return s.inTx(ctx, "ACCOUNT_DELETE_FAILED", email, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM profiles WHERE email = $1`, email); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE email = $1`, email)
		if err != nil {
			return err
		}
		return requireRow(tag, email)
	})
}

func (s *AccountStore) inTx(ctx context.Context, code, email string, fn func(pgx.Tx) error) error {
	err := pgx.BeginFunc(ctx, s.db, fn)
	if err == nil || errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return oops.Code(code).With("email", email).Wrap(err)
}

func requireRow(tag pgconn.CommandTag, email string) error {
	if tag.RowsAffected() == 0 {
		return oops.Code("ACCOUNT_NOT_FOUND").With("email", email).Wrap(repository.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

var _ repository.AccountStore = (*AccountStore)(nil)
