package expo_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	expo "dezeto/expo-push-dispatch"
)

func okTicket(id string, tkn expo.Token) *expo.Ticket {
	return &expo.Ticket{ID: id, Status: expo.StatusOK, Token: tkn}
}

func TestTickets_OKAndErrors(t *testing.T) {
	rejected := &expo.Ticket{
		Status:  expo.StatusError,
		Message: "too big",
		Details: expo.Data{"error": "MessageTooBig"},
		Token:   "ExpoPushToken[c]",
	}
	batchErr := &expo.BatchError{Kind: expo.BatchTransport, Chunk: 1, Err: errors.New("timeout")}
	tickets := expo.NewTickets([]expo.BatchOutcome{
		{Tickets: []*expo.Ticket{okTicket("1", "ExpoPushToken[a]"), rejected}},
		{Err: batchErr},
		{Tickets: []*expo.Ticket{okTicket("2", "ExpoPushToken[d]")}},
	})

	var ids []string
	for ticket := range tickets.OK() {
		ids = append(ids, ticket.ID)
	}
	assert.Equal(t, []string{"1", "2"}, ids)
	assert.Equal(t, ids, tickets.IDs())

	var errs []error
	for err := range tickets.Errors() {
		errs = append(errs, err)
	}
	require.Len(t, errs, 2)
	var ticketErr *expo.TicketError
	require.ErrorAs(t, errs[0], &ticketErr)
	assert.Same(t, rejected, ticketErr.Ticket)
	assert.Same(t, batchErr, errs[1])

	var first *expo.TicketError
	require.ErrorAs(t, tickets.FirstErr(), &first)
	assert.Same(t, rejected, first.Ticket)
	joined := tickets.Err()
	assert.ErrorIs(t, joined, expo.ErrTransport)
	assert.ErrorIs(t, joined, batchErr.Err)

	assert.Equal(t, "MessageTooBig", rejected.ErrorIdentifier())
	assert.Contains(t, rejected.Explain(), "at most 4096 bytes")
}

func TestTickets_IteratorsStopEarly(t *testing.T) {
	tickets := expo.NewTickets([]expo.BatchOutcome{
		{Tickets: []*expo.Ticket{okTicket("1", "a"), okTicket("2", "b"), okTicket("3", "c")}},
		{Err: &expo.BatchError{Kind: expo.BatchTransport}},
		{Err: &expo.BatchError{Kind: expo.BatchServiceErrors}},
	})

	for ticket := range tickets.OK() {
		assert.Equal(t, "1", ticket.ID)
		break
	}
	n := 0
	for range tickets.Errors() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestTickets_NoFailures(t *testing.T) {
	tickets := expo.NewTickets([]expo.BatchOutcome{{Tickets: []*expo.Ticket{okTicket("1", "a")}}})
	assert.NoError(t, tickets.Err())
	assert.NoError(t, tickets.FirstErr())

	empty := expo.NewTickets(nil)
	assert.Empty(t, empty.IDs())
	assert.Empty(t, empty.TokenByReceiptID())
	assert.Empty(t, empty.IDBatches(0))
}

func TestTickets_IDBatches(t *testing.T) {
	var outcomes []expo.BatchOutcome
	var want []string
	for c := range 7 {
		var batch []*expo.Ticket
		for i := range 100 {
			id := fmt.Sprintf("%d-%02d", c, i)
			want = append(want, id)
			batch = append(batch, okTicket(id, expo.Token("t"+id)))
		}
		outcomes = append(outcomes, expo.BatchOutcome{Tickets: batch})
	}
	tickets := expo.NewTickets(outcomes)

	batches := tickets.IDBatches(0)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 300)
	assert.Len(t, batches[1], 300)
	assert.Len(t, batches[2], 100)

	var flat []string
	for _, b := range batches {
		flat = append(flat, b...)
	}
	assert.Equal(t, want, flat)

	assert.Len(t, tickets.IDBatches(1000), 1)
}

func TestTicket_OriginalPushToken(t *testing.T) {
	ticket := &expo.Ticket{
		Status:  expo.StatusError,
		Message: `"ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]" is not a registered push notification recipient`,
	}
	tkn, ok := ticket.OriginalPushToken()
	require.True(t, ok)
	assert.Equal(t, expo.Token("ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]"), tkn)

	uuidTicket := &expo.Ticket{Status: expo.StatusError, Message: "F5741A13-BCDA-434B-A316-5DC0E6FFA94F is not registered"}
	tkn, ok = uuidTicket.OriginalPushToken()
	require.True(t, ok)
	assert.Equal(t, expo.Token("F5741A13-BCDA-434B-A316-5DC0E6FFA94F"), tkn)

	_, ok = okTicket("1", "a").OriginalPushToken()
	assert.False(t, ok)
	_, ok = (&expo.Ticket{Status: expo.StatusError, Message: "no token here"}).OriginalPushToken()
	assert.False(t, ok)
}
