package expo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Transport talks to the push service. Both calls return the raw response
// body; a returned error is a network or protocol failure.
type Transport interface {
	// SendBatch posts a push request body (a JSON list of messages).
	SendBatch(ctx context.Context, payload []byte) ([]byte, error)
	// FetchReceipts posts a receipt lookup for ids.
	FetchReceipts(ctx context.Context, ids []string) ([]byte, error)
}

// DispatcherConfig tunes a Dispatcher. Zero values fall back to the defaults.
type DispatcherConfig struct {
	// Concurrency bounds the number of push requests in flight.
	Concurrency int
	// RequestsPerSecond, when positive, paces the start of push requests.
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// Dispatcher sends chunks concurrently over a bounded number of slots and
// gathers their outcomes in chunk order.
type Dispatcher struct {
	transport Transport
	slots     *semaphore.Weighted
	limiter   *rate.Limiter
	logger    *slog.Logger
}

func NewDispatcher(transport Transport, cfg DispatcherConfig) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d := &Dispatcher{
		transport: transport,
		slots:     semaphore.NewWeighted(int64(cfg.Concurrency)),
		logger:    cfg.Logger.With("component", "Dispatcher"),
	}
	if cfg.RequestsPerSecond > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Concurrency)
	}
	return d
}

// Dispatch sends every chunk and blocks until all of them completed. The
// result holds exactly one outcome per chunk, in the order of chunks.
// A failing chunk never affects its siblings; cancelling ctx surfaces as
// transport errors on the chunks that had not finished.
func (d *Dispatcher) Dispatch(ctx context.Context, chunks []*Chunk) *Tickets {
	outcomes := make([]BatchOutcome, len(chunks))

	var g errgroup.Group
	for i, chunk := range chunks {
		g.Go(func() error {
			outcomes[i] = d.send(ctx, i, chunk)
			return nil
		})
	}
	_ = g.Wait()

	failed, ok, rejected := 0, 0, 0
	for _, o := range outcomes {
		if o.Failed() {
			failed++
			continue
		}
		for _, t := range o.Tickets {
			if t.IsOk() {
				ok++
			} else {
				rejected++
			}
		}
	}
	d.logger.Info("Dispatch complete",
		"chunks", len(chunks),
		"failed_chunks", failed,
		"ok_tickets", ok,
		"error_tickets", rejected,
	)
	return NewTickets(outcomes)
}

func (d *Dispatcher) send(ctx context.Context, index int, chunk *Chunk) BatchOutcome {
	tokens := chunk.Recipients()
	log := d.logger.With("chunk", index, "recipients", len(tokens))

	fail := func(be *BatchError) BatchOutcome {
		be.Chunk = index
		be.Recipients = tokens
		log.Warn("Push batch failed", "kind", be.Kind.String(), "err", be)
		return BatchOutcome{Err: be}
	}

	payload, err := json.Marshal(chunk)
	if err != nil {
		return fail(&BatchError{Kind: BatchTransport, Err: fmt.Errorf("encode chunk: %w", err)})
	}

	body, err := d.roundTrip(ctx, payload)
	if err != nil {
		return fail(&BatchError{Kind: BatchTransport, Err: err})
	}

	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []ServiceError  `json:"errors"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fail(&BatchError{Kind: BatchTransport, Err: fmt.Errorf("decode push response: %w", err)})
	}
	if len(resp.Errors) > 0 {
		return fail(&BatchError{Kind: BatchServiceErrors, Errors: resp.Errors, Data: resp.Data})
	}

	var tickets []*Ticket
	trimmed := bytes.TrimSpace(resp.Data)
	if len(trimmed) == 0 || trimmed[0] != '[' || json.Unmarshal(trimmed, &tickets) != nil {
		return fail(&BatchError{Kind: BatchCountMismatch, Expected: len(tokens), Actual: -1, Data: resp.Data})
	}
	if len(tickets) != len(tokens) {
		return fail(&BatchError{Kind: BatchCountMismatch, Expected: len(tokens), Actual: len(tickets), Data: resp.Data})
	}

	// The service answers in request order and carries no token, so the slot
	// position is the only link back to the recipient.
	for i, t := range tickets {
		switch {
		case t == nil:
			t = &Ticket{Status: StatusError, Message: "no ticket returned for this recipient"}
			tickets[i] = t
		case !t.IsOk() && !t.IsError():
			t.Message = fmt.Sprintf("unexpected ticket status %q", t.Status)
			t.Status = StatusError
		}
		t.Token = tokens[i]
	}
	log.Debug("Push batch sent")
	return BatchOutcome{Tickets: tickets}
}

// roundTrip holds one slot for the duration of a single request.
func (d *Dispatcher) roundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	if err := d.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire connection slot: %w", err)
	}
	defer d.slots.Release(1)

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	return d.transport.SendBatch(ctx, payload)
}
