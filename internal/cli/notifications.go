package cli

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	expo "dezeto/expo-push-dispatch"
)

// notificationEntry is one entry of a notifications file.
type notificationEntry struct {
	To           []string `yaml:"to"`
	expo.Payload `yaml:",inline"`
	Sound        string   `yaml:"sound"`
	Critical     bool     `yaml:"critical_sound"`
	Volume       *float64 `yaml:"sound_volume"`
}

type notificationFile struct {
	Notifications []notificationEntry `yaml:"notifications"`
}

// ReadNotifications parses a YAML (or JSON) notifications file:
//
//	notifications:
//	  - to: ["ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]"]
//	    title: Hello
//	    body: World
//	    sound: default
//	    priority: high
func ReadNotifications(r io.Reader) ([]*expo.Notification, error) {
	var file notificationFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse notifications: %w", err)
	}

	out := make([]*expo.Notification, 0, len(file.Notifications))
	for i, entry := range file.Notifications {
		payload := entry.Payload
		if entry.Sound != "" || entry.Critical || entry.Volume != nil {
			payload.Sound = &expo.Sound{Name: entry.Sound, Critical: entry.Critical, Volume: entry.Volume}
		}
		n, err := expo.NewNotification(payload, entry.To...)
		if err != nil {
			return nil, fmt.Errorf("notification %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}
