package expo_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	expo "dezeto/expo-push-dispatch"
)

func testTokens(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("ExponentPushToken[%s-%03d]", prefix, i)
	}
	return out
}

func mustNotification(t *testing.T, payload expo.Payload, to ...string) *expo.Notification {
	t.Helper()
	n, err := expo.NewNotification(payload, to...)
	require.NoError(t, err)
	return n
}

type wireMessage struct {
	To    []string `json:"to"`
	Title string   `json:"title"`
}

// fakeTransport answers push requests through respond and records what it saw.
type fakeTransport struct {
	respond func(to []string) ([]byte, error)
	delay   func(to []string) time.Duration

	mu       sync.Mutex
	requests [][]wireMessage

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeTransport) SendBatch(ctx context.Context, payload []byte) ([]byte, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	var msgs []wireMessage
	if err := json.Unmarshal(payload, &msgs); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.requests = append(f.requests, msgs)
	f.mu.Unlock()

	var to []string
	for _, m := range msgs {
		to = append(to, m.To...)
	}
	if f.delay != nil {
		select {
		case <-time.After(f.delay(to)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.respond(to)
}

func (f *fakeTransport) FetchReceipts(context.Context, []string) ([]byte, error) {
	return nil, fmt.Errorf("not used")
}

// okTickets answers one ok ticket per recipient, with id "id:<token>".
func okTickets(to []string) ([]byte, error) {
	data := make([]map[string]string, len(to))
	for i, tkn := range to {
		data[i] = map[string]string{"status": "ok", "id": "id:" + tkn}
	}
	return json.Marshal(map[string]any{"data": data})
}
