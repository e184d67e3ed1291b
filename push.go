package expo

import (
	"encoding/json"
	"fmt"
	"maps"
)

type (
	Priority string
	Data     map[string]any
	ErrorMsg string
	Token    string
)

const (
	// NormalPriority is a priority used in Payload
	NormalPriority Priority = "normal"
	// HighPriority is a priority used in Payload
	HighPriority Priority = "high"
	// DefaultPriority is the standard priority used in Payload
	DefaultPriority Priority = "default"

	// ErrorMsgDeviceNotRegistered indicates the token is invalid
	ErrorMsgDeviceNotRegistered ErrorMsg = "DeviceNotRegistered"
	// ErrorMsgTooBig indicates the message went over payload size of 4096 bytes
	ErrorMsgTooBig ErrorMsg = "MessageTooBig"
	// ErrorMsgRateExceeded indicates messages have been sent too frequently
	ErrorMsgRateExceeded ErrorMsg = "MessageRateExceeded"
	// ErrorMsgMismatchSenderID indicates FCM credentials issue
	ErrorMsgMismatchSenderID ErrorMsg = "MismatchSenderId"
	// ErrorMsgInvalidCredentials indicates invalid push credentials
	ErrorMsgInvalidCredentials ErrorMsg = "InvalidCredentials"

	// Request-level errors
	ErrorTooManyRequests      ErrorMsg = "TOO_MANY_REQUESTS"
	ErrorTooManyExperienceIDs ErrorMsg = "PUSH_TOO_MANY_EXPERIENCE_IDS"
	ErrorTooManyNotifications ErrorMsg = "PUSH_TOO_MANY_NOTIFICATIONS"
	ErrorTooManyReceipts      ErrorMsg = "PUSH_TOO_MANY_RECEIPTS"
	ErrorUnauthorized         ErrorMsg = "UNAUTHORIZED"
)

const (
	// ChunkLimit is the max number of recipients sent in one push request.
	ChunkLimit = 100
	// ReceiptChunkLimit is the max number of receipt ids requested at once.
	ReceiptChunkLimit = 300
	// DefaultConcurrency is the default number of push requests in flight.
	DefaultConcurrency = 6
)

// Version is reported in the User-Agent header.
const Version = "1.0.0"

// ParsePriority accepts "", "default", "normal" and "high".
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(s); p {
	case "", DefaultPriority, NormalPriority, HighPriority:
		return p, nil
	default:
		return "", &ValidationError{Field: "priority", Value: s, Reason: "priority must be default, normal, or high"}
	}
}

// Sound is either a plain sound name or, on iOS, a critical alert sound.
// Name "default" plays the device's default notification sound.
type Sound struct {
	Name     string
	Critical bool
	// Volume between 0 and 1, critical sounds only.
	Volume *float64
}

// SoundNamed returns a plain named sound.
func SoundNamed(name string) *Sound {
	return &Sound{Name: name}
}

func (s Sound) MarshalJSON() ([]byte, error) {
	if !s.Critical && s.Volume == nil {
		return json.Marshal(s.Name)
	}
	return json.Marshal(struct {
		Critical bool     `json:"critical"`
		Name     string   `json:"name,omitempty"`
		Volume   *float64 `json:"volume,omitempty"`
	}{s.Critical, s.Name, s.Volume})
}

func (s *Sound) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*s = Sound{Name: name}
		return nil
	}
	var obj struct {
		Critical bool     `json:"critical"`
		Name     string   `json:"name"`
		Volume   *float64 `json:"volume"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("sound must be a string or an object: %w", err)
	}
	*s = Sound{Name: obj.Name, Critical: obj.Critical, Volume: obj.Volume}
	return nil
}

// Payload holds every field of a push message except its recipients.
// The zero value is a valid, empty payload.
type Payload struct {
	// The title to display in the notification. On iOS, this is displayed only on Apple Watch.
	Title string `json:"title,omitempty" yaml:"title"`
	// The message to display in the notification.
	Body string `json:"body,omitempty" yaml:"body"`
	// A JSON object delivered to the app. The total notification payload must be at most 4096 bytes.
	Data Data `json:"data,omitempty" yaml:"data"`
	// A sound to play when the recipient receives this notification. Nil plays no sound.
	Sound *Sound `json:"sound,omitempty" yaml:"-"`
	// The number of seconds for which the message may be kept around for redelivery.
	// Nil uses the provider defaults (0 for APNs, 4 weeks for FCM).
	TTL *int `json:"ttl,omitempty" yaml:"ttl"`
	// UNIX timestamp for when this message expires. TTL takes precedence.
	Expiration *int64 `json:"expiration,omitempty" yaml:"expiration"`
	// Delivery priority of the message. Use the *Priority constants specified above.
	Priority Priority `json:"priority,omitempty" yaml:"priority"`
	// iOS unread count. 0 clears the badge, nil leaves it as is.
	Badge *int `json:"badge,omitempty" yaml:"badge"`
	// ID of the Notification Channel through which to display this notification on Android devices.
	ChannelID string `json:"channelId,omitempty" yaml:"channel_id"`
	// ID of the notification category that this notification is associated with
	CategoryID string `json:"categoryId,omitempty" yaml:"category_id"`
	// iOS only: The subtitle to display in the notification below the title
	Subtitle string `json:"subtitle,omitempty" yaml:"subtitle"`
	// iOS only: The importance and delivery timing of a notification
	InterruptionLevel string `json:"interruptionLevel,omitempty" yaml:"interruption_level"`
	// iOS only: When true, notification can be intercepted by the client app
	MutableContent bool `json:"mutableContent,omitempty" yaml:"mutable_content"`
	// iOS only: When true, causes iOS app to start in background to run a background task
	ContentAvailable bool `json:"_contentAvailable,omitempty" yaml:"content_available"`
	// Android only: The notification's icon. Name of an Android drawable resource
	Icon string `json:"icon,omitempty" yaml:"icon"`
	// Rich content support (currently supports setting a notification image)
	RichContent map[string]string `json:"richContent,omitempty" yaml:"rich_content"`
}

// Validate checks the fields that have a closed set of values.
func (p Payload) Validate() error {
	if _, err := ParsePriority(string(p.Priority)); err != nil {
		return err
	}
	if p.Sound != nil && p.Sound.Volume != nil && (*p.Sound.Volume < 0 || *p.Sound.Volume > 1) {
		return &ValidationError{Field: "sound.volume", Value: fmt.Sprint(*p.Sound.Volume), Reason: "volume must be between 0 and 1"}
	}
	if p.TTL != nil && *p.TTL < 0 {
		return &ValidationError{Field: "ttl", Value: fmt.Sprint(*p.TTL), Reason: "ttl must not be negative"}
	}
	if p.Data != nil {
		// Data must survive a JSON round trip as an object.
		if _, err := json.Marshal(p.Data); err != nil {
			return &ValidationError{Field: "data", Reason: "data must be JSON serializable", Err: err}
		}
	}
	return nil
}

// clone copies the payload so that no map, slice or pointer is shared with p.
func (p Payload) clone() Payload {
	out := p
	if p.Data != nil {
		out.Data = cloneValue(map[string]any(p.Data)).(map[string]any)
	}
	if p.Sound != nil {
		s := *p.Sound
		if s.Volume != nil {
			s.Volume = Ptr(*s.Volume)
		}
		out.Sound = &s
	}
	if p.TTL != nil {
		out.TTL = Ptr(*p.TTL)
	}
	if p.Expiration != nil {
		out.Expiration = Ptr(*p.Expiration)
	}
	if p.Badge != nil {
		out.Badge = Ptr(*p.Badge)
	}
	if p.RichContent != nil {
		out.RichContent = maps.Clone(p.RichContent)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[k] = cloneValue(e)
		}
		return m
	case Data:
		return Data(cloneValue(map[string]any(v)).(map[string]any))
	case []any:
		s := make([]any, len(v))
		for i, e := range v {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// Ptr returns a pointer to v, for the optional Payload fields.
func Ptr[T any](v T) *T {
	return &v
}
