package expo

import "slices"

// Notification is a payload addressed to an ordered list of recipients.
// Recipients are validated as they are added, so a Notification never holds
// an invalid token.
type Notification struct {
	payload    Payload
	recipients []Token
}

// NewNotification validates the payload and the initial recipients. The
// notification keeps its own copy of the payload.
func NewNotification(payload Payload, recipients ...string) (*Notification, error) {
	payload = payload.clone()
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	n := &Notification{payload: payload}
	if err := n.AddRecipients(recipients...); err != nil {
		return nil, err
	}
	return n, nil
}

// AddRecipients appends tokens in order. On the first invalid token nothing is
// added and a *ValidationError is returned.
func (n *Notification) AddRecipients(tokens ...string) error {
	parsed := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		tkn, err := ParseToken(t)
		if err != nil {
			return err
		}
		parsed = append(parsed, tkn)
	}
	n.recipients = append(n.recipients, parsed...)
	return nil
}

// Payload returns a copy of the notification fields.
func (n *Notification) Payload() Payload {
	return n.payload.clone()
}

// Recipients returns a copy of the recipient list.
func (n *Notification) Recipients() []Token {
	return slices.Clone(n.recipients)
}

func (n *Notification) Count() int {
	return len(n.recipients)
}
