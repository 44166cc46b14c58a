package docai

import (
	"context"
	"time"
)

// DefaultPollInterval is the pause between status rounds.
const DefaultPollInterval = 2 * time.Second

// Refresher reloads the status of a request in place.
type Refresher interface {
	Refresh(ctx context.Context, r *Request) error
}

// Poller waits for requests to finish.
type Poller struct {
	Client   Refresher
	Interval time.Duration
}

// Wait refreshes every unfinished request once per round until all have
// finished, calling onUpdate (if non-nil) after each refresh. Requests are
// returned in the order they finished. On cancellation or a refresh error
// the requests finished so far are returned with the error.
func (p *Poller) Wait(ctx context.Context, reqs []*Request, onUpdate func(*Request)) ([]*Request, error) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	pending := append([]*Request(nil), reqs...)
	done := make([]*Request, 0, len(reqs))

	for {
		next := pending[:0]
		for _, r := range pending {
			if err := p.Client.Refresh(ctx, r); err != nil {
				return done, err
			}
			if onUpdate != nil {
				onUpdate(r)
			}
			if r.Finished() {
				done = append(done, r)
			} else {
				next = append(next, r)
			}
		}
		pending = next

		if len(pending) == 0 {
			return done, nil
		}

		select {
		case <-ctx.Done():
			return done, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// WaitOne waits for a single request.
func (p *Poller) WaitOne(ctx context.Context, r *Request, onUpdate func(*Request)) error {
	_, err := p.Wait(ctx, []*Request{r}, onUpdate)
	return err
}
