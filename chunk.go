package expo

import (
	"encoding/json"
	"slices"
)

// message is one (payload, recipient subset) pair inside a Chunk.
type message struct {
	payload Payload
	to      []Token
}

func (m message) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(m.payload)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	to, err := json.Marshal(m.to)
	if err != nil {
		return nil, err
	}
	fields["to"] = to
	return json.Marshal(fields)
}

// Chunk is the content of a single push request. The sum of its recipients
// never exceeds the limit it was built with.
type Chunk struct {
	messages []message
	limit    int
}

// RecipientCount is the total number of recipients over all messages.
func (c *Chunk) RecipientCount() int {
	n := 0
	for _, m := range c.messages {
		n += len(m.to)
	}
	return n
}

// Len is the number of (payload, recipients) pairs in the chunk.
func (c *Chunk) Len() int {
	return len(c.messages)
}

// Recipients flattens the chunk's recipients in request order. The tickets
// returned for the chunk line up with this slice.
func (c *Chunk) Recipients() []Token {
	out := make([]Token, 0, c.RecipientCount())
	for _, m := range c.messages {
		out = append(out, m.to...)
	}
	return out
}

// Pair returns the payload and recipient subset at position i.
func (c *Chunk) Pair(i int) (Payload, []Token) {
	m := c.messages[i]
	return m.payload, slices.Clone(m.to)
}

func (c *Chunk) remaining() int {
	return c.limit - c.RecipientCount()
}

// MarshalJSON renders the request body: a list of {"to": [...], ...payload}.
func (c *Chunk) MarshalJSON() ([]byte, error) {
	if c.messages == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.messages)
}

// ChunkNotifications packs notifications greedily, in order, into chunks of at
// most limit recipients. A notification with more recipients than fit is split
// across consecutive chunks; notifications without recipients are skipped.
// A limit <= 0 or above ChunkLimit uses ChunkLimit.
func ChunkNotifications(notifications []*Notification, limit int) []*Chunk {
	if limit <= 0 || limit > ChunkLimit {
		limit = ChunkLimit
	}
	var chunks []*Chunk
	var current *Chunk
	for _, n := range notifications {
		if n == nil {
			continue
		}
		targets := n.recipients
		for len(targets) > 0 {
			if current == nil || current.remaining() <= 0 {
				current = &Chunk{limit: limit}
				chunks = append(chunks, current)
			}
			count := min(len(targets), current.remaining())
			current.messages = append(current.messages, message{
				payload: n.payload,
				to:      slices.Clone(targets[:count]),
			})
			targets = targets[count:]
		}
	}
	return chunks
}
