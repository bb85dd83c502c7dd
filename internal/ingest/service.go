// Package ingest turns monitoring-webhook deliveries into normalized log
// records with an idempotent create-or-update keyed by the external event id.
package ingest

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/tracelight/tracelight/internal/store"
	"github.com/tracelight/tracelight/pkg/models"
)

var (
	ErrInvalidPayload = errors.New("webhook payload is not valid JSON")
	ErrMissingEventID = errors.New("webhook payload has no event id")
	ErrBadSignature   = errors.New("webhook signature mismatch")
	ErrSecretUnset    = errors.New("webhook secret is not configured")
)

// Service validates and ingests webhook deliveries.
type Service struct {
	store  store.Store
	secret string
}

// NewService creates an ingestion Service bound to the pre-shared secret.
func NewService(s store.Store, secret string) *Service {
	return &Service{store: s, secret: secret}
}

// VerifySignature checks the delivery signature against the configured
// secret in constant time. An unset secret always fails: an unverifiable
// webhook is never accepted.
func (s *Service) VerifySignature(signature string) error {
	if s.secret == "" {
		return ErrSecretUnset
	}
	if subtle.ConstantTimeCompare([]byte(signature), []byte(s.secret)) != 1 {
		return ErrBadSignature
	}
	return nil
}

// Ingest extracts a normalized log from the raw payload and upserts it by
// external event id. The returned boolean reports whether a new log was
// created (as opposed to a last-seen refresh of an existing one).
func (s *Service) Ingest(ctx context.Context, raw []byte) (*models.Log, bool, error) {
	log, err := Extract(raw, time.Now().UTC())
	if err != nil {
		return nil, false, err
	}

	result, created, err := s.store.UpsertLogByEventID(ctx, log)
	if err != nil {
		return nil, false, fmt.Errorf("ingest event %s: %w", *log.EventID, err)
	}
	return result, created, nil
}
