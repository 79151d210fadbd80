package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/models"
)

// exportPageSize bounds memory per export iteration; exports stream page by
// page instead of loading the whole log.
const exportPageSize = 500

// clientAuditService is the concrete implementation of ClientAuditService.
type clientAuditService struct {
	audit store.AuditRepository

	// exportDir is where JSONL exports are written.
	exportDir string

	logger *logger.Logger
}

func NewClientAuditService(audit store.AuditRepository, cfg config.Exports, logger *logger.Logger) ClientAuditService {
	return &clientAuditService{
		audit:     audit,
		exportDir: cfg.Dir,
		logger:    logger,
	}
}

// Record implements [ClientAuditService]. Failures are logged and swallowed:
// the sync outcome the entry describes must not be lost because the log
// write failed.
func (a *clientAuditService) Record(ctx context.Context, entry models.AuditLogEntry) {
	if _, err := a.audit.AppendEntry(ctx, entry); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "clientAuditService.Record").
			Int64("user_id", entry.UserID).
			Str("action", string(entry.Action)).
			Msg("failed to append audit entry")
	}
}

// Query implements [ClientAuditService].
func (a *clientAuditService) Query(ctx context.Context, userID int64, filter models.AuditFilter) ([]models.AuditLogEntry, models.Pagination, error) {
	entries, total, err := a.audit.QueryEntries(ctx, userID, filter)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("audit query failed: %w", err)
	}

	page, limit := filter.Page, filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	pagination := models.Pagination{
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: (total + limit - 1) / limit,
	}

	return entries, pagination, nil
}

// Export implements [ClientAuditService]. Entries are written one JSON object
// per line, newest first, matching the query order.
func (a *clientAuditService) Export(ctx context.Context, userID int64, start, end time.Time) (string, error) {
	log := logger.FromContext(ctx)

	if err := os.MkdirAll(a.exportDir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(a.exportDir, fmt.Sprintf("audit-%s.jsonl", time.Now().UTC().Format("20060102-150405")))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	filter := models.AuditFilter{Limit: exportPageSize, Page: 1}
	if !start.IsZero() {
		filter.StartDate = &start
	}
	if !end.IsZero() {
		filter.EndDate = &end
	}

	written := 0
	for {
		entries, total, err := a.audit.QueryEntries(ctx, userID, filter)
		if err != nil {
			return "", fmt.Errorf("audit query failed: %w", err)
		}

		for _, entry := range entries {
			line, err := json.Marshal(entry)
			if err != nil {
				return "", fmt.Errorf("marshal audit entry: %w", err)
			}
			if _, err = file.Write(append(line, '\n')); err != nil {
				return "", fmt.Errorf("write export file: %w", err)
			}
			written++
		}

		if written >= total || len(entries) == 0 {
			break
		}
		filter.Page++
	}

	if err = file.Sync(); err != nil {
		return "", fmt.Errorf("flush export file: %w", err)
	}

	log.Info().
		Int64("user_id", userID).
		Int("entries", written).
		Str("path", path).
		Msg("audit log exported")

	return path, nil
}
