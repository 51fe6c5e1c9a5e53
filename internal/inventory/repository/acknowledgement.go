package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/omiam/omiam-backend/internal/inventory/domain"
	"github.com/omiam/omiam-backend/pkg/database"
)

// AcknowledgementRepository persists alert acknowledgements
type AcknowledgementRepository struct {
	db *database.DB
}

// NewAcknowledgementRepository creates a new acknowledgement repository
func NewAcknowledgementRepository(db *database.DB) *AcknowledgementRepository {
	return &AcknowledgementRepository{db: db}
}

// Save upserts the acknowledgement; a re-acknowledgement replaces the stored
// fingerprint and actor.
func (r *AcknowledgementRepository) Save(ctx context.Context, ack *domain.AlertAcknowledgement) error {
	query := `
		INSERT INTO alert_acknowledgements (
			alert_id, item_id, alert_type, fingerprint, acknowledged_by, acknowledged_at
		) VALUES (:alert_id, :item_id, :alert_type, :fingerprint, :acknowledged_by, :acknowledged_at)
		ON CONFLICT (alert_id) DO UPDATE SET
			fingerprint = EXCLUDED.fingerprint,
			acknowledged_by = EXCLUDED.acknowledged_by,
			acknowledged_at = EXCLUDED.acknowledged_at
	`
	if _, err := r.db.NamedExecContext(ctx, query, ack); err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return fmt.Errorf("save alert acknowledgement: %w", err)
	}
	return nil
}

// List returns every stored acknowledgement
func (r *AcknowledgementRepository) List(ctx context.Context) ([]domain.AlertAcknowledgement, error) {
	acks := []domain.AlertAcknowledgement{}
	query := `
		SELECT alert_id, item_id, alert_type, fingerprint, acknowledged_by, acknowledged_at
		FROM alert_acknowledgements
	`
	if err := r.db.SelectContext(ctx, &acks, query); err != nil {
		return nil, fmt.Errorf("list alert acknowledgements: %w", err)
	}
	return acks, nil
}

// Delete removes the acknowledgements for the given alert ids
func (r *AcknowledgementRepository) Delete(ctx context.Context, alertIDs ...string) error {
	if len(alertIDs) == 0 {
		return nil
	}
	query := `DELETE FROM alert_acknowledgements WHERE alert_id = ANY($1::uuid[])`
	if _, err := r.db.ExecContext(ctx, query, pq.Array(alertIDs)); err != nil {
		return fmt.Errorf("delete alert acknowledgements: %w", err)
	}
	return nil
}
