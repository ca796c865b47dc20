// Package poller backfills deals that the webhook never delivered: it lists
// CRM deals, filters out pre-deployment deals and deals that already have a
// folder link, and runs the same pipeline per deal.
package poller

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/techlab-live/zoho-drive-bridge/internal/webhook"
)

// DealLister is the slice of the CRM client the poller needs.
type DealLister interface {
	ListDeals(ctx context.Context, fields []string) ([]map[string]any, error)
}

// Poller lists deals and feeds unprocessed ones through the webhook pipeline.
type Poller struct {
	lister    DealLister
	processor *webhook.Processor
	linkField string
}

// New creates a Poller. linkField is the CRM field holding the folder link;
// deals where it is already set are left alone.
func New(lister DealLister, processor *webhook.Processor, linkField string) *Poller {
	return &Poller{lister: lister, processor: processor, linkField: linkField}
}

// Run performs one polling pass and returns the number of deals processed.
// Per-deal errors are logged and do not stop the pass; the next pass retries
// them since the link field stays empty.
func (p *Poller) Run(ctx context.Context) (int, error) {
	fields := []string{"Deal_Name", "Deal_ID", "Stage", "Amount", "Created_Time", p.linkField}
	deals, err := p.lister.ListDeals(ctx, fields)
	if err != nil {
		return 0, fmt.Errorf("list deals: %w", err)
	}
	log.Printf("poller: found %d deals", len(deals))

	processed := 0
	for _, deal := range deals {
		if str(deal[p.linkField]) != "" {
			continue
		}

		ev := webhook.Event{
			DealName:    str(deal["Deal_Name"]),
			DealID:      dealID(deal),
			Stage:       str(deal["Stage"]),
			Amount:      str(deal["Amount"]),
			CreatedTime: str(deal["Created_Time"]),
		}
		if ev.DealName == "" {
			continue
		}

		res, err := p.processor.Process(ctx, ev)
		if err != nil {
			log.Printf("poller: error processing deal %s: %v", ev.DealID, err)
			continue
		}
		if res.Skipped {
			continue
		}
		processed++
	}

	log.Printf("poller: pass complete, processed %d deals", processed)
	return processed, nil
}

// dealID prefers the Deal_ID custom field and falls back to the record id.
func dealID(deal map[string]any) string {
	if id := str(deal["Deal_ID"]); id != "" {
		return id
	}
	return str(deal["id"])
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
