package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/jackc/pgerrcode"
)

// userRepository is the PostgreSQL-backed implementation of [UserRepository].
// It handles account creation, lookup, and two-factor material against the
// "users" and "backup_codes" tables.
//
// All methods obtain a context-scoped logger via [logger.FromContext] for
// structured, request-level tracing of database interactions.
type userRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewUserRepository constructs a [UserRepository] backed by the provided
// database connection and logger.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating user repository")
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// CreateUser persists a new user record and returns the fully populated
// [models.User] with server-assigned fields (UserID, CreatedAt).
//
// Error handling:
//   - PostgreSQL unique_violation (23505) → [ErrEmailAlreadyExists].
//   - Any other driver-level error → wrapped as "unexpected DB error".
//   - Scan failure → returned directly.
func (r *userRepository) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	log := logger.FromContext(ctx)

	row := r.db.QueryRowContext(ctx, createUser, user.Email, user.PasswordHash, models.TwoFactorDisabled)

	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error: row is nil")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.User{}, ErrEmailAlreadyExists
		default:
			return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	var created models.User
	if err := scanUser(row.Scan, &created); err != nil {
		if postgresError(err) == pgerrcode.UniqueViolation {
			return models.User{}, ErrEmailAlreadyExists
		}
		log.Err(err).Str("func", "*userRepository.CreateUser").Msg("error: scanning error")
		return models.User{}, err
	}

	return created, nil
}

// FindUserByEmail retrieves the user record whose email matches. Returns
// [ErrUserNotFound] when no account exists for the email.
func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	log := logger.FromContext(ctx)

	var found models.User
	row := r.db.QueryRowContext(ctx, findUserByEmail, email)

	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*userRepository.FindUserByEmail").Msg("error: row is nil")
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanUser(row.Scan, &found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		log.Err(err).Str("func", "*userRepository.FindUserByEmail").Msg("error: scanning error")
		return models.User{}, err
	}

	return found, nil
}

// GetUserByID retrieves the user record by its primary key. Returns
// [ErrUserNotFound] when the id does not exist.
func (r *userRepository) GetUserByID(ctx context.Context, userID int64) (models.User, error) {
	log := logger.FromContext(ctx)

	var found models.User
	row := r.db.QueryRowContext(ctx, getUserByID, userID)

	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*userRepository.GetUserByID").Msg("error: row is nil")
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := scanUser(row.Scan, &found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		log.Err(err).Str("func", "*userRepository.GetUserByID").Msg("error: scanning error")
		return models.User{}, err
	}

	return found, nil
}

// UpdateTwoFactor sets the two-factor state and secret on the user row.
func (r *userRepository) UpdateTwoFactor(ctx context.Context, userID int64, state, secret string) error {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, updateUserTwoFactor, state, secret, userID)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.UpdateTwoFactor").Int64("user_id", userID).Msg("error updating two-factor state")
		return fmt.Errorf("unexpected DB error: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ReplaceBackupCodes wipes the user's stored backup code hashes and inserts
// the new set in one transaction, so a crash mid-replace never leaves a mix
// of old and new codes.
func (r *userRepository) ReplaceBackupCodes(ctx context.Context, userID int64, codeHashes []string) error {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.ReplaceBackupCodes").Int64("user_id", userID).Msg("error beginning transaction")
		return fmt.Errorf("%w: %v", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, deleteBackupCodes, userID); err != nil {
		log.Err(err).Str("func", "*userRepository.ReplaceBackupCodes").Int64("user_id", userID).Msg("error deleting old backup codes")
		return fmt.Errorf("unexpected DB error: %w", err)
	}

	for _, hash := range codeHashes {
		if _, err = tx.ExecContext(ctx, insertBackupCode, userID, hash); err != nil {
			log.Err(err).Str("func", "*userRepository.ReplaceBackupCodes").Int64("user_id", userID).Msg("error inserting backup code")
			return fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrCommitingTransaction, err)
	}

	return nil
}

// ConsumeBackupCode deletes the matching hash and reports whether a row was
// removed. A single DELETE makes the single-use guarantee atomic: two
// concurrent logins with the same code cannot both succeed.
func (r *userRepository) ConsumeBackupCode(ctx context.Context, userID int64, codeHash string) (bool, error) {
	log := logger.FromContext(ctx)

	result, err := r.db.ExecContext(ctx, consumeBackupCode, userID, codeHash)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.ConsumeBackupCode").Int64("user_id", userID).Msg("error consuming backup code")
		return false, fmt.Errorf("unexpected DB error: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// CountBackupCodes reports how many unused codes remain for the user.
func (r *userRepository) CountBackupCodes(ctx context.Context, userID int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, countBackupCodes, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("unexpected DB error: %w", err)
	}

	return count, nil
}

// DeleteBackupCodes removes every stored code hash for the user.
func (r *userRepository) DeleteBackupCodes(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, deleteBackupCodes, userID); err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}

	return nil
}

func scanUser(scan func(dest ...any) error, user *models.User) error {
	var secret sql.NullString
	if err := scan(&user.UserID, &user.Email, &user.PasswordHash, &user.TwoFactorState, &secret, &user.CreatedAt); err != nil {
		return err
	}
	user.TwoFactorSecret = secret.String

	return nil
}
