package expo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	expo "dezeto/expo-push-dispatch"
)

func TestSendWithReceipts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := readRequestBody(t, r)
		if strings.HasSuffix(r.URL.Path, "/push/send") {
			_, _ = w.Write([]byte(`{"data": [
				{"status": "ok", "id": "r-ok"},
				{"status": "error", "message": "gone", "details": {"error": "DeviceNotRegistered"}},
				{"status": "ok", "id": "r-failed"},
				{"status": "ok", "id": "r-pending"}
			]}`))
			return
		}
		var req expo.PushReceiptRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.ElementsMatch(t, []string{"r-ok", "r-failed", "r-pending"}, req.IDs)
		_, _ = w.Write([]byte(`{"data": {
			"r-ok": {"status": "ok"},
			"r-failed": {"status": "error", "message": "slow down", "details": {"error": "MessageRateExceeded"}}
		}}`))
	})

	notification := mustNotification(t, expo.Payload{Title: "hi"},
		"ExpoPushToken[ok]", "ExpoPushToken[gone]", "ExpoPushToken[failed]", "ExpoPushToken[pending]")

	res, err := client.SendWithReceipts(context.Background(), []*expo.Notification{notification}, time.Millisecond)
	require.NoError(t, err)

	require.Len(t, res.Results, 4)
	byToken := map[expo.Token]*expo.PushResult{}
	for _, r := range res.Results {
		byToken[r.Token] = r
	}

	assert.True(t, byToken["ExpoPushToken[ok]"].IsSuccessful())

	gone := byToken["ExpoPushToken[gone]"]
	assert.False(t, gone.IsSuccessful())
	assert.False(t, gone.ShouldRetryToken())
	var ticketErr *expo.TicketError
	assert.ErrorAs(t, gone.Error, &ticketErr)

	failed := byToken["ExpoPushToken[failed]"]
	assert.Equal(t, "r-failed", failed.TicketID)
	assert.True(t, failed.ShouldRetryToken())
	var receiptErr *expo.ReceiptError
	assert.ErrorAs(t, failed.Error, &receiptErr)

	assert.True(t, byToken["ExpoPushToken[pending]"].IsPending())
	assert.Equal(t, []string{"r-pending"}, res.UnresolvedIDs)
}

func TestSendWithReceipts_BatchFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	})

	res, err := client.SendWithReceipts(context.Background(),
		[]*expo.Notification{mustNotification(t, expo.Payload{}, "ExpoPushToken[a]", "ExpoPushToken[b]")}, time.Millisecond)
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	for _, r := range res.Results {
		assert.ErrorIs(t, r.Error, expo.ErrCountMismatch)
		assert.True(t, r.ShouldRetryToken())
	}
	assert.Nil(t, res.Receipts)
}

func TestSendWithReceipts_CancelledWhileWaiting(t *testing.T) {
	client := newTestClient(t, pushHandler(t))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := client.SendWithReceipts(ctx, []*expo.Notification{mustNotification(t, expo.Payload{}, "ExpoPushToken[a]")}, time.Hour)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"id:ExpoPushToken[a]"}, res.UnresolvedIDs)
}
