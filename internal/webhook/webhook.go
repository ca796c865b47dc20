// Package webhook runs the deal-created pipeline: validate the event, filter
// by deployment date, create the Drive folder, and write the link back into
// the CRM record.
package webhook

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/techlab-live/zoho-drive-bridge/internal/adapter"
)

// Event is the inbound deal-created payload from Zoho.
type Event struct {
	DealName    string `json:"Deal_Name"`
	DealID      string `json:"Deal_ID"`
	Stage       string `json:"Stage"`
	Amount      string `json:"Amount"`
	CreatedTime string `json:"Created_Time"`
}

// createdAt parses the Created_Time field. ok is false when the field is
// absent or unparseable; such events are processed rather than skipped.
func (e Event) createdAt() (time.Time, bool) {
	if e.CreatedTime == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, e.CreatedTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ValidationError reports a webhook payload that fails validation.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required in webhook payload", e.Field)
}

// CRMUpdater is the slice of the CRM client the pipeline needs.
type CRMUpdater interface {
	UpdateDeal(ctx context.Context, dealID string, fields map[string]any) (map[string]any, error)
	AppendNote(ctx context.Context, dealID, noteText string) (map[string]any, error)
}

// Options configures the pipeline.
type Options struct {
	// DeploymentDate excludes pre-existing deals: events created strictly
	// before it are skipped instead of processed.
	DeploymentDate time.Time

	// LinkField is the CRM field the folder link is written to.
	LinkField string

	// AppendNotes also appends a human-readable note to the deal.
	AppendNotes bool
}

// Result reports what the pipeline did for one event.
type Result struct {
	Skipped     bool
	FolderID    string
	DriveLink   string
	DealUpdated bool

	// UpdateError carries the reason when the folder was created but the
	// CRM link-back failed. The folder still exists; this is the documented
	// partial-success case.
	UpdateError string
}

// Processor is the webhook pipeline. One instance is constructed at startup
// and shared by the HTTP handler and the poller.
type Processor struct {
	folders adapter.FolderService
	crm     CRMUpdater
	opts    Options
	now     func() time.Time
}

// NewProcessor creates a Processor.
func NewProcessor(folders adapter.FolderService, crm CRMUpdater, opts Options) *Processor {
	return &Processor{folders: folders, crm: crm, opts: opts, now: time.Now}
}

// Process runs the pipeline for one event.
//
// A folder-creation failure is returned as an error. A CRM failure after the
// folder exists is not: the result carries DealUpdated=false and the reason,
// because re-running the pipeline would create a duplicate folder.
func (p *Processor) Process(ctx context.Context, ev Event) (*Result, error) {
	if ev.DealName == "" {
		return nil, &ValidationError{Field: "Deal_Name"}
	}

	// Correlation id for tracing one event through the log lines below.
	cid := uuid.New().String()[:8]
	log.Printf("[%s] processing deal %q (id %s) created %s", cid, ev.DealName, ev.DealID, ev.CreatedTime)

	if created, ok := ev.createdAt(); ok && created.Before(p.opts.DeploymentDate) {
		log.Printf("[%s] deal created before deployment date %s, skipping", cid, p.opts.DeploymentDate.Format(time.RFC3339))
		return &Result{Skipped: true}, nil
	}

	folder, err := p.folders.CreateFolder(ctx, ev.DealName, adapter.FolderMetadata{
		DealName: ev.DealName,
		DealID:   ev.DealID,
		Stage:    ev.Stage,
		Amount:   ev.Amount,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[%s] created folder %s (%s)", cid, folder.ID, folder.Link)

	res := &Result{FolderID: folder.ID, DriveLink: folder.Link}

	if _, err := p.crm.UpdateDeal(ctx, ev.DealID, map[string]any{p.opts.LinkField: folder.Link}); err != nil {
		log.Printf("[%s] warning: failed to update deal %s with drive link: %v", cid, ev.DealID, err)
		res.UpdateError = err.Error()
		return res, nil
	}
	res.DealUpdated = true
	log.Printf("[%s] updated deal %s with drive link", cid, ev.DealID)

	if p.opts.AppendNotes {
		note := fmt.Sprintf("Google Drive folder created for deal %q on %s: %s",
			ev.DealName, p.now().UTC().Format(time.RFC3339), folder.Link)
		if _, err := p.crm.AppendNote(ctx, ev.DealID, note); err != nil {
			// Losing the note is acceptable; the link-back already landed.
			log.Printf("[%s] warning: failed to append note to deal %s: %v", cid, ev.DealID, err)
		} else {
			log.Printf("[%s] appended note to deal %s", cid, ev.DealID)
		}
	}

	return res, nil
}
