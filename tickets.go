package expo

import (
	"errors"
	"iter"
	"slices"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Ticket is the immediate answer of the push service for one recipient.
//
//	{"status": "ok", "id": "XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX"}
//	{"status": "error", "message": "...", "details": {"error": "DeviceNotRegistered"}}
type Ticket struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Details Data   `json:"details"`
	// Token is the recipient that occupied this ticket's slot in the request.
	Token Token `json:"-"`
}

func (t *Ticket) IsOk() bool {
	return t.Status == StatusOK
}

func (t *Ticket) IsError() bool {
	return t.Status == StatusError
}

// ErrorIdentifier returns details.error, e.g. "DeviceNotRegistered".
func (t *Ticket) ErrorIdentifier() string {
	s, _ := t.Details["error"].(string)
	return s
}

// IsDeviceNotRegistered checks if the ticket indicates the device is no longer registered
func (t *Ticket) IsDeviceNotRegistered() bool {
	return t.ErrorIdentifier() == string(ErrorMsgDeviceNotRegistered)
}

func (t *Ticket) Explain() string {
	return ExplainDetails(t.Details)
}

// OriginalPushToken returns the token named in the error message of a failed
// ticket. Ok tickets return false.
func (t *Ticket) OriginalPushToken() (Token, bool) {
	if t.IsOk() {
		return "", false
	}
	return tokenInMessage(t.Message)
}

// BatchOutcome is the result of one chunk: either Tickets or Err, never both.
type BatchOutcome struct {
	Tickets []*Ticket
	Err     *BatchError
}

// Failed reports whether the whole batch failed.
func (o BatchOutcome) Failed() bool {
	return o.Err != nil
}

// Tickets are paged: one BatchOutcome per dispatched chunk, in chunk order.
//
// OK skips failed batches entirely. Always consume Errors (or check Err) as
// well, otherwise undelivered notifications go unnoticed.
type Tickets struct {
	outcomes []BatchOutcome
}

// NewTickets assembles a result set from ordered outcomes.
func NewTickets(outcomes []BatchOutcome) *Tickets {
	return &Tickets{outcomes: outcomes}
}

// Outcomes returns the per-chunk outcomes in chunk order.
func (t *Tickets) Outcomes() []BatchOutcome {
	return slices.Clone(t.outcomes)
}

// OK yields every ok ticket of every successful batch.
func (t *Tickets) OK() iter.Seq[*Ticket] {
	return func(yield func(*Ticket) bool) {
		for _, o := range t.outcomes {
			if o.Failed() {
				continue
			}
			for _, ticket := range o.Tickets {
				if !ticket.IsOk() {
					continue
				}
				if !yield(ticket) {
					return
				}
			}
		}
	}
}

// Errors yields a *BatchError for each failed batch and a *TicketError for
// each rejected ticket of the successful ones, in chunk order.
func (t *Tickets) Errors() iter.Seq[error] {
	return func(yield func(error) bool) {
		for _, o := range t.outcomes {
			if o.Failed() {
				if !yield(o.Err) {
					return
				}
				continue
			}
			for _, ticket := range o.Tickets {
				if !ticket.IsError() {
					continue
				}
				if !yield(&TicketError{Ticket: ticket}) {
					return
				}
			}
		}
	}
}

// Err joins every error yielded by Errors, or returns nil.
func (t *Tickets) Err() error {
	var errs []error
	for err := range t.Errors() {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// FirstErr returns the first error in chunk order, or nil.
func (t *Tickets) FirstErr() error {
	for err := range t.Errors() {
		return err
	}
	return nil
}

// IDs returns the receipt ids of all ok tickets.
func (t *Tickets) IDs() []string {
	var ids []string
	for ticket := range t.OK() {
		ids = append(ids, ticket.ID)
	}
	return ids
}

// TokenByReceiptID maps each ok ticket's receipt id to its recipient.
func (t *Tickets) TokenByReceiptID() map[string]Token {
	m := make(map[string]Token)
	for ticket := range t.OK() {
		m[ticket.ID] = ticket.Token
	}
	return m
}

// IDBatches slices IDs into groups of at most limit, preserving order.
// A limit <= 0 uses ReceiptChunkLimit.
func (t *Tickets) IDBatches(limit int) [][]string {
	return batchIDs(t.IDs(), limit)
}

func batchIDs(ids []string, limit int) [][]string {
	if limit <= 0 {
		limit = ReceiptChunkLimit
	}
	var out [][]string
	for batch := range slices.Chunk(ids, limit) {
		out = append(out, batch)
	}
	return out
}
