// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	nextSnapshotVersion = `
		SELECT COALESCE(MAX(version), 0) + 1
		FROM snapshots
		WHERE user_id = $1 AND data_type = $2;`

	insertSnapshot = `
		INSERT INTO snapshots (
			user_id,
			data_type,
			version,
			server_version,
			operation,
			sync_status,
			items_count,
			device_id,
			is_current,
			created_at,
			error_message,
			envelope
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	clearCurrentSnapshot = `
		UPDATE snapshots SET is_current = 0
		WHERE user_id = $1 AND data_type = $2 AND id <> $3;`

	markCurrentSnapshot = `
		UPDATE snapshots SET is_current = 1
		WHERE user_id = $1 AND data_type = $2 AND id = $3;`

	getSnapshots = `
		SELECT
			id,
			user_id,
			data_type,
			version,
			server_version,
			operation,
			sync_status,
			items_count,
			device_id,
			is_current,
			created_at,
			error_message,
			envelope
		FROM snapshots
		WHERE user_id = $1 AND data_type = $2
		ORDER BY version DESC
		LIMIT $3;`

	getSnapshotByVersion = `
		SELECT
			id,
			user_id,
			data_type,
			version,
			server_version,
			operation,
			sync_status,
			items_count,
			device_id,
			is_current,
			created_at,
			error_message,
			envelope
		FROM snapshots
		WHERE user_id = $1 AND data_type = $2 AND version = $3;`

	getCurrentSnapshot = `
		SELECT
			id,
			user_id,
			data_type,
			version,
			server_version,
			operation,
			sync_status,
			items_count,
			device_id,
			is_current,
			created_at,
			error_message,
			envelope
		FROM snapshots
		WHERE user_id = $1 AND data_type = $2 AND is_current = 1;`

	pruneSnapshots = `
		DELETE FROM snapshots
		WHERE user_id = $1 AND data_type = $2 AND is_current = 0
		  AND id NOT IN (
			SELECT id FROM snapshots
			WHERE user_id = $1 AND data_type = $2
			ORDER BY version DESC
			LIMIT $3
		  );`

	getPendingQueueItem = `
		SELECT
			id,
			user_id,
			data_type,
			payload,
			base_version,
			items_count,
			attempt_count,
			next_retry_at,
			status,
			last_error,
			created_at,
			updated_at
		FROM queue_items
		WHERE user_id = $1 AND data_type = $2 AND status = 'pending';`

	insertQueueItem = `
		INSERT INTO queue_items (
			id,
			user_id,
			data_type,
			payload,
			base_version,
			items_count,
			attempt_count,
			next_retry_at,
			status,
			last_error,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	updateQueueItemPayload = `
		UPDATE queue_items SET
			payload      = $1,
			base_version = $2,
			items_count  = $3,
			updated_at   = CURRENT_TIMESTAMP
		WHERE id = $4 AND status = 'pending';`

	getDueQueueItems = `
		SELECT
			id,
			user_id,
			data_type,
			payload,
			base_version,
			items_count,
			attempt_count,
			next_retry_at,
			status,
			last_error,
			created_at,
			updated_at
		FROM queue_items
		WHERE user_id = $1 AND status = 'pending' AND next_retry_at <= $2
		ORDER BY created_at ASC;`

	markQueueAttempt = `
		UPDATE queue_items SET
			attempt_count = $1,
			next_retry_at = $2,
			last_error    = $3,
			updated_at    = CURRENT_TIMESTAMP
		WHERE id = $4;`

	markQueueCompleted = `
		UPDATE queue_items SET
			status     = 'completed',
			last_error = '',
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1;`

	markQueueFailed = `
		UPDATE queue_items SET
			status     = 'failed',
			last_error = $1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $2;`

	retryFailedQueueItems = `
		UPDATE queue_items SET
			status        = 'pending',
			attempt_count = 0,
			next_retry_at = CURRENT_TIMESTAMP,
			updated_at    = CURRENT_TIMESTAMP
		WHERE user_id = $1 AND status = 'failed';`

	clearFailedQueueItems = `
		DELETE FROM queue_items
		WHERE user_id = $1 AND status = 'failed';`

	getQueueStats = `
		SELECT
			COUNT(CASE WHEN status = 'pending' THEN 1 END),
			COUNT(CASE WHEN status = 'failed' THEN 1 END),
			COUNT(CASE WHEN status = 'completed' THEN 1 END),
			COUNT(*)
		FROM queue_items
		WHERE user_id = $1;`

	insertAuditEntry = `
		INSERT INTO audit_log (
			user_id,
			timestamp,
			data_type,
			action,
			device_id,
			ip_address,
			success,
			detail,
			error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`
)
