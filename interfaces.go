package expo

import (
	"context"
	"time"
)

// PushClient defines the interface for sending push notifications
type PushClient interface {
	// Send chunks and dispatches notifications, reporting failures as values
	Send(ctx context.Context, notifications []*Notification) *Tickets

	// SendStrict is Send that also returns the first failed batch
	SendStrict(ctx context.Context, notifications []*Notification) (*Tickets, error)

	// Receipts fetches push receipts for one batch of ticket IDs
	Receipts(ctx context.Context, ids []string) (*Receipts, error)

	// ReceiptsForIDs fetches push receipts for any number of ticket IDs
	ReceiptsForIDs(ctx context.Context, ids []string) (*Receipts, error)

	// SendWithReceipts sends push notifications and waits once for receipts
	SendWithReceipts(ctx context.Context, notifications []*Notification, receiptDelay time.Duration) (*WorkflowResult, error)
}

// Ensure Client implements PushClient and Transport
var (
	_ PushClient = (*Client)(nil)
	_ Transport  = (*Client)(nil)
)
