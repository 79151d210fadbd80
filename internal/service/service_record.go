package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/internal/utils"
	"github.com/MKhiriev/go-mail-sync/models"
)

// recordService is the concrete implementation of RecordService.
type recordService struct {
	records store.RecordRepository

	// hashKey is the HMAC key for the optional transport integrity hash on
	// pushed envelopes. Shared with the engine adapter.
	hashKey string

	logger *logger.Logger
}

func NewRecordService(records store.RecordRepository, cfg config.App, logger *logger.Logger) RecordService {
	return &recordService{
		records: records,
		hashKey: cfg.HashKey,
		logger:  logger,
	}
}

// Push implements [RecordService].
func (r *recordService) Push(ctx context.Context, userID int64, req models.PushRequest) (models.RemoteRecord, error) {
	log := logger.FromContext(ctx)

	if !req.DataType.Valid() || req.Envelope == "" || req.BaseVersion < 0 {
		log.Error().
			Int64("user_id", userID).
			Str("data_type", string(req.DataType)).
			Msg("invalid push request")
		return models.RemoteRecord{}, ErrInvalidDataProvided
	}

	if req.Hash != "" {
		expected := utils.HashString(req.Envelope, r.hashKey)
		if req.Hash != expected {
			log.Warn().
				Int64("user_id", userID).
				Str("data_type", string(req.DataType)).
				Msg("push rejected: envelope hash mismatch")
			return models.RemoteRecord{}, ErrIntegrityCheckFailed
		}
	}

	record, err := r.records.UpsertRecord(ctx, userID, req)
	if err != nil {
		// a version conflict carries the server's current record back to the
		// handler so the 409 body needs no second query
		log.Warn().
			Int64("user_id", userID).
			Str("data_type", string(req.DataType)).
			Int64("base_version", req.BaseVersion).
			Err(err).
			Msg("push not applied")
		return record, fmt.Errorf("push not applied: %w", err)
	}

	return record, nil
}

// Pull implements [RecordService].
func (r *recordService) Pull(ctx context.Context, userID int64, dataType models.DataType) (models.RemoteRecord, error) {
	if !dataType.Valid() {
		return models.RemoteRecord{}, ErrInvalidDataProvided
	}

	record, err := r.records.GetRecord(ctx, userID, dataType)
	if err != nil {
		return models.RemoteRecord{}, fmt.Errorf("record lookup failed: %w", err)
	}

	return record, nil
}
