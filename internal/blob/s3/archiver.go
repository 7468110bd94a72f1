package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/marketdesk/admind/internal/domain"
)

// Archiver writes an immutable JSON snapshot of every intake decision to
// object storage for compliance review. Snapshots are keyed by decision date
// and market so an auditor can replay what the admin saw and chose.
//
// Key schema:
//
//	decisions/{yyyy-mm-dd}/{polymarketID}-{decisionID}.json
type Archiver struct {
	writer *Writer
}

// NewArchiver creates an Archiver that uploads through the given Writer.
func NewArchiver(w *Writer) *Archiver {
	return &Archiver{writer: w}
}

// ArchiveDecision uploads one decision snapshot. Failures here are reported
// to the caller but must be treated as non-fatal: the decision itself is
// already durable in Postgres.
func (a *Archiver) ArchiveDecision(ctx context.Context, d domain.IntakeDecision) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: marshal decision %s: %w", d.ID, err)
	}

	key := fmt.Sprintf("decisions/%s/%s-%s.json",
		d.DecidedAt.UTC().Format("2006-01-02"), d.PolymarketID, d.ID)

	if err := a.writer.Put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive decision %s: %w", d.ID, err)
	}
	return nil
}

var _ domain.DecisionArchiver = (*Archiver)(nil)
