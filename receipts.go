package expo

import (
	"bytes"
	"encoding/json"
	"iter"
	"slices"
)

// Receipt is the delayed delivery outcome for one ticket id.
type Receipt struct {
	ID      string `json:"-"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Details Data   `json:"details,omitempty"`
}

// IsOk returns true if the receipt status is "ok"
func (r *Receipt) IsOk() bool {
	return r.Status == StatusOK
}

func (r *Receipt) IsError() bool {
	return r.Status == StatusError
}

// ErrorIdentifier returns details.error, e.g. "MessageRateExceeded".
func (r *Receipt) ErrorIdentifier() string {
	s, _ := r.Details["error"].(string)
	return s
}

// IsDeviceNotRegistered checks if the receipt indicates the device is no longer registered
func (r *Receipt) IsDeviceNotRegistered() bool {
	return r.ErrorIdentifier() == string(ErrorMsgDeviceNotRegistered)
}

func (r *Receipt) Explain() string {
	return ExplainDetails(r.Details)
}

// OriginalPushToken returns the token named in the error message of a failed
// receipt.
func (r *Receipt) OriginalPushToken() (Token, bool) {
	if r.IsOk() {
		return "", false
	}
	return tokenInMessage(r.Message)
}

// Receipts is the result of one receipt lookup. Ids the service did not
// answer for yet are reported by UnresolvedIDs; look them up again later.
type Receipts struct {
	receipts     []*Receipt
	requestedIDs []string
}

// All returns every receipt, ok or not, in requested id order.
func (r *Receipts) All() []*Receipt {
	return slices.Clone(r.receipts)
}

// Get returns the receipt for id.
func (r *Receipts) Get(id string) (*Receipt, bool) {
	for _, rc := range r.receipts {
		if rc.ID == id {
			return rc, true
		}
	}
	return nil, false
}

// OK yields receipts that report a successful delivery.
func (r *Receipts) OK() iter.Seq[*Receipt] {
	return func(yield func(*Receipt) bool) {
		for _, rc := range r.receipts {
			if rc.IsOk() && !yield(rc) {
				return
			}
		}
	}
}

// Errors yields a *ReceiptError for each failed delivery.
func (r *Receipts) Errors() iter.Seq[error] {
	return func(yield func(error) bool) {
		for _, rc := range r.receipts {
			if rc.IsError() && !yield(&ReceiptError{Receipt: rc}) {
				return
			}
		}
	}
}

// UnresolvedIDs are the requested ids missing from the response, in request order.
func (r *Receipts) UnresolvedIDs() []string {
	seen := make(map[string]struct{}, len(r.receipts))
	for _, rc := range r.receipts {
		seen[rc.ID] = struct{}{}
	}
	var out []string
	for _, id := range r.requestedIDs {
		if _, ok := seen[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// Merge appends the receipts and requested ids of other lookups.
func (r *Receipts) Merge(others ...*Receipts) *Receipts {
	merged := &Receipts{
		receipts:     slices.Clone(r.receipts),
		requestedIDs: slices.Clone(r.requestedIDs),
	}
	for _, o := range others {
		if o == nil {
			continue
		}
		merged.receipts = append(merged.receipts, o.receipts...)
		merged.requestedIDs = append(merged.requestedIDs, o.requestedIDs...)
	}
	return merged
}

type receiptsEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []ServiceError  `json:"errors"`
}

// ResolveReceipts interprets a receipt lookup response for the requested ids.
//
// A body that is not a JSON object with an object "data" member is a
// *ServerError. A body with a non-empty "errors" list is a *ReceiptsError.
func ResolveReceipts(ids []string, body []byte) (*Receipts, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, NewServerError("expected hash with receipt id => receipt, but got some other data structure", nil, body, nil)
	}

	var env receiptsEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		s := NewServerError("could not parse receipts response", nil, body, nil)
		s.Err = err
		return nil, s
	}
	if len(env.Errors) > 0 {
		return nil, &ReceiptsError{Errors: env.Errors, Body: json.RawMessage(trimmed)}
	}

	var data map[string]*Receipt
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			s := NewServerError("expected hash with receipt id => receipt, but got some other data structure", nil, body, nil)
			s.Err = err
			return nil, s
		}
	}

	res := &Receipts{requestedIDs: slices.Clone(ids)}
	added := make(map[string]struct{}, len(data))
	for _, id := range ids {
		rc, ok := data[id]
		if !ok || rc == nil {
			continue
		}
		if _, dup := added[id]; dup {
			continue
		}
		rc.ID = id
		res.receipts = append(res.receipts, rc)
		added[id] = struct{}{}
	}
	// Receipts for ids that were not asked for still count as returned.
	extra := make([]string, 0)
	for id := range data {
		if _, ok := added[id]; !ok && data[id] != nil {
			extra = append(extra, id)
		}
	}
	slices.Sort(extra)
	for _, id := range extra {
		rc := data[id]
		rc.ID = id
		res.receipts = append(res.receipts, rc)
	}
	return res, nil
}
