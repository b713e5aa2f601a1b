package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BrightonDube/bizpilot-session/internal/domain"
)

func TestSubscribePublish(t *testing.T) {
	b := New()

	var got []domain.Event
	b.Subscribe(domain.TopicSessionIdle, func(evt domain.Event) {
		got = append(got, evt)
	})

	b.Publish(domain.Event{Topic: domain.TopicSessionIdle, SessionID: "s1", At: time.Now()})

	assert.Len(t, got, 1)
	assert.Equal(t, "s1", got[0].SessionID)
}

func TestPublishOnlyMatchingTopic(t *testing.T) {
	b := New()

	var idle, warning int
	b.Subscribe(domain.TopicSessionIdle, func(domain.Event) { idle++ })
	b.Subscribe(domain.TopicSessionWarning, func(domain.Event) { warning++ })

	b.Publish(domain.Event{Topic: domain.TopicSessionWarning})

	assert.Equal(t, 0, idle)
	assert.Equal(t, 1, warning)
}

func TestUnsubscribe(t *testing.T) {
	b := New()

	var calls int
	unsub := b.Subscribe(domain.TopicSessionExpired, func(domain.Event) { calls++ })

	b.Publish(domain.Event{Topic: domain.TopicSessionExpired})
	unsub()
	b.Publish(domain.Event{Topic: domain.TopicSessionExpired})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, b.SubscriberCount(domain.TopicSessionExpired))
}

func TestUnsubscribeTwiceIsHarmless(t *testing.T) {
	b := New()

	unsub := b.Subscribe(domain.TopicSessionRefreshed, func(domain.Event) {})
	unsub()
	assert.NotPanics(t, func() { unsub() })
}

func TestMultipleSubscribersAllDelivered(t *testing.T) {
	b := New()

	var a, c int
	b.Subscribe(domain.TopicAuthExpired, func(domain.Event) { a++ })
	b.Subscribe(domain.TopicAuthExpired, func(domain.Event) { c++ })

	b.Publish(domain.Event{Topic: domain.TopicAuthExpired})

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, c)
}
