package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrEmailAlreadyExists is returned when an attempt to register a new
	// user fails because an account with the same email already exists.
	ErrEmailAlreadyExists = errors.New("email already registered")

	// ErrUserNotFound is returned when a query expected to match a user
	// record produces an empty result set.
	ErrUserNotFound = errors.New("no user was found")

	// ErrRecordNotFound is returned when a pull targets a (user, data type)
	// pair the server has never received a push for.
	ErrRecordNotFound = errors.New("no record for data type")

	// ErrRecordVersionConflict is returned when an optimistic-locking check
	// fails: the base version supplied by the client does not match the
	// current version stored in the database, meaning another device has
	// pushed since the client last synchronized.
	ErrRecordVersionConflict = errors.New("record version conflict occurred")

	// ErrDeviceNotFound is returned when an operation targets a device that
	// is not registered for the user.
	ErrDeviceNotFound = errors.New("device was not found")

	// ErrSessionNotFound is returned when an operation targets a session
	// that does not exist or belongs to another user.
	ErrSessionNotFound = errors.New("session was not found")

	// ErrSnapshotNotFound is returned when a rollback or lookup targets a
	// snapshot version absent from the retained history.
	ErrSnapshotNotFound = errors.New("snapshot was not found")

	// ErrQueueItemNotFound is returned when a queue transition targets an
	// item that does not exist.
	ErrQueueItemNotFound = errors.New("queue item was not found")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)
