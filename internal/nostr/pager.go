package nostr

import (
	"context"
)

// Pager walks a filter backward in time. Each page asks for BatchSize records
// with Until set to one second before the oldest record of the previous page.
// It stops on a short page, an empty page, a page of already-seen ids, or
// once MaxRecords unique records were returned.
type Pager struct {
	store      Store
	filter     Filter
	batchSize  int
	maxRecords int

	seen     map[string]struct{}
	total    int
	batches  int
	requests int
	done     bool
}

// NewPager creates a pager. A maxRecords of 0 means no ceiling.
func NewPager(store Store, filter Filter, batchSize, maxRecords int) *Pager {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Pager{
		store:      store,
		filter:     filter,
		batchSize:  batchSize,
		maxRecords: maxRecords,
		seen:       make(map[string]struct{}),
	}
}

// Done reports whether the pager has nothing more to fetch.
func (p *Pager) Done() bool { return p.done }

// Batches returns how many pages carried at least one record.
func (p *Pager) Batches() int { return p.batches }

// Requests returns how many queries were sent, including the empty page
// that ends a walk over an exact multiple of the batch size.
func (p *Pager) Requests() int { return p.requests }

// Total returns how many unique records were returned so far.
func (p *Pager) Total() int { return p.total }

// Next fetches one page and returns the records not seen before. On error the
// pager is finished and the records the store did hand back are still returned.
func (p *Pager) Next(ctx context.Context) ([]*Event, error) {
	if p.done {
		return nil, nil
	}

	f := p.filter
	f.Limit = p.batchSize
	p.requests++

	events, err := p.store.Query(ctx, f)
	if err != nil {
		p.done = true
		return p.fresh(events), err
	}
	if len(events) == 0 {
		p.done = true
		return nil, nil
	}
	p.batches++

	oldest := events[0].CreatedAt
	for _, ev := range events[1:] {
		oldest = min(oldest, ev.CreatedAt)
	}

	out := p.fresh(events)
	switch {
	case len(out) == 0:
		p.done = true
	case len(events) < p.batchSize:
		p.done = true
	case p.maxRecords > 0 && p.total >= p.maxRecords:
		p.done = true
	}

	p.filter.Until = oldest - 1
	if p.filter.Until <= 0 {
		p.done = true
	}
	return out, nil
}

func (p *Pager) fresh(events []*Event) []*Event {
	out := make([]*Event, 0, len(events))
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if _, dup := p.seen[ev.ID]; dup {
			continue
		}
		if p.maxRecords > 0 && p.total >= p.maxRecords {
			break
		}
		p.seen[ev.ID] = struct{}{}
		p.total++
		out = append(out, ev)
	}
	return out
}
