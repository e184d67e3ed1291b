// Package cli implements the expopush command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	expo "dezeto/expo-push-dispatch"
	"dezeto/expo-push-dispatch/internal/pending"
)

// Sender is the part of the client the tool drives.
type Sender interface {
	Send(ctx context.Context, notifications []*expo.Notification) *expo.Tickets
	ReceiptsForIDs(ctx context.Context, ids []string) (*expo.Receipts, error)
}

// App wires a client to a pending store and an output.
type App struct {
	Client Sender
	Store  pending.Store
	Out    io.Writer
	Logger *slog.Logger
}

// Send dispatches the notifications, prints every failure and remembers the
// accepted tickets. It returns the number of failures.
func (a *App) Send(ctx context.Context, notifications []*expo.Notification) (int, error) {
	tickets := a.Client.Send(ctx, notifications)

	ok := 0
	for ticket := range tickets.OK() {
		ok++
		fmt.Fprintf(a.Out, "ok     %s  %s\n", ticket.ID, ticket.Token)
	}

	failures := 0
	for err := range tickets.Errors() {
		failures++
		var batchErr *expo.BatchError
		var ticketErr *expo.TicketError
		switch {
		case errors.As(err, &batchErr):
			fmt.Fprintf(a.Out, "batch  %s  %d recipients: %v\n", batchErr.Kind, len(batchErr.Recipients), batchErr)
		case errors.As(err, &ticketErr):
			fmt.Fprintf(a.Out, "error  %s  %s\n       %s\n", ticketErr.Ticket.Token, ticketErr.Ticket.Message, ticketErr.Ticket.Explain())
		}
	}

	if err := a.Store.Save(ctx, tickets.TokenByReceiptID()); err != nil {
		return failures, err
	}
	a.Logger.Info("Notifications sent", "ok", ok, "failures", failures)
	return failures, nil
}

// Receipts looks up ids, or every pending id when ids is empty, prints the
// receipts and forgets the resolved ids. It returns the number of failed
// deliveries.
func (a *App) Receipts(ctx context.Context, ids []string) (int, error) {
	known, err := a.Store.Load(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		ids = slices.Sorted(maps.Keys(known))
	}
	if len(ids) == 0 {
		fmt.Fprintln(a.Out, "no pending receipts")
		return 0, nil
	}

	receipts, lookupErr := a.Client.ReceiptsForIDs(ctx, ids)
	if receipts == nil {
		return 0, lookupErr
	}

	failures := 0
	var resolved []string
	for _, rc := range receipts.All() {
		resolved = append(resolved, rc.ID)
		tkn := known[rc.ID]
		if rc.IsOk() {
			fmt.Fprintf(a.Out, "ok     %s  %s\n", rc.ID, tkn)
			continue
		}
		failures++
		fmt.Fprintf(a.Out, "error  %s  %s  %s\n       %s\n", rc.ID, tkn, rc.Message, rc.Explain())
		if rc.IsDeviceNotRegistered() && tkn != "" {
			fmt.Fprintf(a.Out, "unregistered  %s\n", tkn)
		}
	}
	if err := a.Store.Remove(ctx, resolved...); err != nil {
		return failures, err
	}

	unresolved := receipts.UnresolvedIDs()
	if lookupErr != nil {
		// Batches after the failing one were never asked for.
		unresolved = unresolvedAfter(ids, resolved)
	}
	for _, id := range unresolved {
		fmt.Fprintf(a.Out, "pending  %s\n", id)
	}
	a.Logger.Info("Receipts checked", "resolved", len(resolved), "failures", failures, "unresolved", len(unresolved))
	return failures, lookupErr
}

func unresolvedAfter(ids, resolved []string) []string {
	done := make(map[string]struct{}, len(resolved))
	for _, id := range resolved {
		done[id] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := done[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Validate prints the validity of each token and returns the number of
// invalid ones.
func Validate(out io.Writer, tokens []string) int {
	_, invalid := expo.FilterValidTokens(tokens)
	bad := make(map[string]struct{}, len(invalid))
	for _, t := range invalid {
		bad[t] = struct{}{}
	}
	for _, t := range tokens {
		if _, ok := bad[t]; ok {
			fmt.Fprintf(out, "invalid  %s\n", t)
		} else {
			fmt.Fprintf(out, "valid    %s\n", t)
		}
	}
	return len(invalid)
}
