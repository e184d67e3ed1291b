package expo

import (
	"context"
	"fmt"
	"time"
)

// PushResult contains the complete result of sending a push notification to
// one recipient.
type PushResult struct {
	Token       Token
	TicketID    string
	PushTicket  *Ticket
	PushReceipt *Receipt
	Error       error
}

// IsSuccessful returns true if the push was successful (ticket OK and receipt OK)
func (r *PushResult) IsSuccessful() bool {
	return r.Error == nil &&
		r.PushTicket != nil && r.PushTicket.IsOk() &&
		r.PushReceipt != nil && r.PushReceipt.IsOk()
}

// IsPending reports an accepted ticket whose receipt is not available yet.
func (r *PushResult) IsPending() bool {
	return r.Error == nil && r.PushTicket != nil && r.PushTicket.IsOk() && r.PushReceipt == nil
}

// ShouldRetryToken returns true if this token should be retried later
func (r *PushResult) ShouldRetryToken() bool {
	if r.PushReceipt != nil && r.PushReceipt.IsError() {
		// Don't retry for DeviceNotRegistered or permanent errors
		return !r.PushReceipt.IsDeviceNotRegistered()
	}
	if r.PushTicket != nil && r.PushTicket.IsDeviceNotRegistered() {
		return false
	}
	return r.Error != nil
}

// WorkflowResult is the outcome of SendWithReceipts.
type WorkflowResult struct {
	Results []*PushResult
	// UnresolvedIDs had no receipt yet when the lookup ran.
	UnresolvedIDs []string
	Tickets       *Tickets
	Receipts      *Receipts
}

// SendWithReceipts sends the notifications, waits receiptDelay once and looks
// up the receipts of all accepted tickets. Ids still unresolved after that
// single lookup are returned for the caller to check again later.
func (c *Client) SendWithReceipts(ctx context.Context, notifications []*Notification, receiptDelay time.Duration) (*WorkflowResult, error) {
	// Step 1: Send push notifications
	tickets := c.Send(ctx, notifications)
	out := &WorkflowResult{Tickets: tickets}

	// Step 2: One result per recipient, batch failures included
	byID := make(map[string]*PushResult)
	for _, o := range tickets.Outcomes() {
		if o.Failed() {
			for _, tkn := range o.Err.Recipients {
				out.Results = append(out.Results, &PushResult{Token: tkn, Error: o.Err})
			}
			continue
		}
		for _, ticket := range o.Tickets {
			result := &PushResult{Token: ticket.Token, PushTicket: ticket}
			if ticket.IsOk() {
				result.TicketID = ticket.ID
				byID[ticket.ID] = result
			} else {
				result.Error = &TicketError{Ticket: ticket}
			}
			out.Results = append(out.Results, result)
		}
	}

	ids := tickets.IDs()
	if len(ids) == 0 {
		return out, nil
	}

	// Step 3: Wait for receipts (recommended: 15 minutes)
	if receiptDelay == 0 {
		receiptDelay = 15 * time.Minute
	}
	timer := time.NewTimer(receiptDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		out.UnresolvedIDs = ids
		return out, ctx.Err()
	case <-timer.C:
	}

	// Step 4: Fetch push receipts
	receipts, err := c.ReceiptsForIDs(ctx, ids)
	out.Receipts = receipts
	if receipts != nil {
		for _, rc := range receipts.All() {
			result, ok := byID[rc.ID]
			if !ok {
				continue
			}
			result.PushReceipt = rc
			if rc.IsError() {
				result.Error = &ReceiptError{Receipt: rc}
			}
		}
	}
	for _, id := range ids {
		if byID[id].PushReceipt == nil {
			out.UnresolvedIDs = append(out.UnresolvedIDs, id)
		}
	}
	if err != nil {
		return out, fmt.Errorf("failed to fetch push receipts: %w", err)
	}
	return out, nil
}
