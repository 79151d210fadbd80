package store

const (
	createUser = `INSERT INTO users (email, password_hash, two_factor_state)
    VALUES ($1, $2, $3)
    RETURNING user_id, email, password_hash, two_factor_state, two_factor_secret, created_at;`

	findUserByEmail = `SELECT user_id, email, password_hash, two_factor_state, two_factor_secret, created_at
    FROM users
    WHERE email = $1;`

	getUserByID = `SELECT user_id, email, password_hash, two_factor_state, two_factor_secret, created_at
    FROM users
    WHERE user_id = $1;`

	updateUserTwoFactor = `UPDATE users
    SET two_factor_state = $1, two_factor_secret = $2
    WHERE user_id = $3;`

	deleteBackupCodes = `DELETE FROM backup_codes
    WHERE user_id = $1;`

	insertBackupCode = `INSERT INTO backup_codes (user_id, code_hash)
    VALUES ($1, $2);`

	consumeBackupCode = `DELETE FROM backup_codes
    WHERE user_id = $1 AND code_hash = $2;`

	countBackupCodes = `SELECT COUNT(*)
    FROM backup_codes
    WHERE user_id = $1;`

	getSyncRecord = `SELECT data_type, version, envelope, items_count, updated_at
    FROM sync_records
    WHERE user_id = $1 AND data_type = $2;`

	getSyncRecordForUpdate = `SELECT version, envelope, items_count, updated_at
    FROM sync_records
    WHERE user_id = $1 AND data_type = $2
    FOR UPDATE;`

	insertSyncRecord = `INSERT INTO sync_records (user_id, data_type, version, envelope, items_count, updated_at)
    VALUES ($1, $2, 1, $3, $4, NOW())
    RETURNING version, updated_at;`

	updateSyncRecord = `UPDATE sync_records
    SET version = version + 1, envelope = $1, items_count = $2, updated_at = NOW()
    WHERE user_id = $3 AND data_type = $4
    RETURNING version, updated_at;`

	insertDevice = `INSERT INTO devices (device_id, user_id, device_name, platform, revoked, last_seen_at)
    VALUES ($1, $2, $3, $4, false, NOW())
    RETURNING device_id, user_id, device_name, platform, revoked, last_seen_at, created_at;`

	getDevice = `SELECT device_id, user_id, device_name, platform, revoked, last_seen_at, created_at
    FROM devices
    WHERE user_id = $1 AND device_id = $2;`

	listDevices = `SELECT device_id, user_id, device_name, platform, revoked, last_seen_at, created_at
    FROM devices
    WHERE user_id = $1
    ORDER BY created_at ASC;`

	renameDevice = `UPDATE devices
    SET device_name = $1
    WHERE user_id = $2 AND device_id = $3;`

	revokeDevice = `UPDATE devices
    SET revoked = true
    WHERE user_id = $1 AND device_id = $2 AND revoked = false;`

	touchDevice = `UPDATE devices
    SET last_seen_at = NOW()
    WHERE user_id = $1 AND device_id = $2;`

	revokeDeviceSessions = `UPDATE sessions
    SET revoked = true
    WHERE user_id = $1 AND device_id = $2 AND revoked = false;`

	insertSession = `INSERT INTO sessions (user_id, device_id, ip_address, location, last_activity)
    VALUES ($1, $2, $3, $4, NOW())
    RETURNING id, user_id, device_id, ip_address, location, last_activity;`

	listSessions = `SELECT id, user_id, device_id, ip_address, location, last_activity
    FROM sessions
    WHERE user_id = $1 AND revoked = false
    ORDER BY last_activity DESC;`

	revokeSession = `UPDATE sessions
    SET revoked = true
    WHERE user_id = $1 AND id = $2 AND revoked = false;`

	revokeAllSessionsExcept = `UPDATE sessions
    SET revoked = true
    WHERE user_id = $1 AND revoked = false AND device_id <> $2;`

	revokeAllSessions = `UPDATE sessions
    SET revoked = true
    WHERE user_id = $1 AND revoked = false;`
)
