package cli_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	expo "dezeto/expo-push-dispatch"
	"dezeto/expo-push-dispatch/internal/cli"
)

func TestReadNotifications(t *testing.T) {
	input := `
notifications:
  - to: ["ExponentPushToken[aaa]", "ExpoPushToken[bbb]"]
    title: Hello
    body: World
    sound: default
    priority: high
    badge: 3
    channel_id: news
    data:
      article: 42
  - to: ["F5741A13-BCDA-434B-A316-5DC0E6FFA94F"]
    title: Alarm
    sound: alarm.wav
    critical_sound: true
    sound_volume: 0.8
  - to: []
    title: Nobody
`
	notifications, err := cli.ReadNotifications(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, notifications, 3)

	first := notifications[0].Payload()
	assert.Equal(t, "Hello", first.Title)
	assert.Equal(t, expo.HighPriority, first.Priority)
	assert.Equal(t, expo.SoundNamed("default"), first.Sound)
	assert.Equal(t, 3, *first.Badge)
	assert.Equal(t, "news", first.ChannelID)
	assert.Equal(t, 42, first.Data["article"])
	assert.Equal(t, []expo.Token{"ExponentPushToken[aaa]", "ExpoPushToken[bbb]"}, notifications[0].Recipients())

	second := notifications[1].Payload()
	require.NotNil(t, second.Sound)
	assert.True(t, second.Sound.Critical)
	assert.Equal(t, "alarm.wav", second.Sound.Name)
	assert.InDelta(t, 0.8, *second.Sound.Volume, 1e-9)

	assert.Zero(t, notifications[2].Count())
	assert.Nil(t, notifications[2].Payload().Sound)
}

func TestReadNotifications_JSON(t *testing.T) {
	notifications, err := cli.ReadNotifications(strings.NewReader(`{"notifications": [{"to": ["ExpoPushToken[a]"], "body": "hi"}]}`))
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "hi", notifications[0].Payload().Body)
}

func TestReadNotifications_Errors(t *testing.T) {
	_, err := cli.ReadNotifications(strings.NewReader(`
notifications:
  - to: ["ExpoPushToken[ok]"]
  - to: ["not-a-token"]
`))
	require.ErrorIs(t, err, expo.ErrInvalidToken)
	assert.Contains(t, err.Error(), "notification 1")

	_, err = cli.ReadNotifications(strings.NewReader(`notifications: [{to: ["ExpoPushToken[a]"], priority: urgent}]`))
	require.ErrorIs(t, err, expo.ErrInvalidPayload)

	_, err = cli.ReadNotifications(strings.NewReader("notifications: [\n"))
	require.Error(t, err)

	empty, err := cli.ReadNotifications(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
