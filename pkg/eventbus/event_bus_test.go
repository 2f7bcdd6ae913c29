package eventbus_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/govkit/records-sdk/pkg/eventbus"
)

type unitMoved struct {
	Name string
}

type unitDeleted struct {
	Name string
}

func TestPublishDispatchesByType(t *testing.T) {
	bus := eventbus.NewEventPublisher(logrus.New())

	var moved []string
	var deleted []string
	bus.Subscribe(func(ev unitMoved) { moved = append(moved, ev.Name) })
	bus.Subscribe(func(ev unitDeleted) { deleted = append(deleted, ev.Name) })

	bus.Publish(unitMoved{Name: "registry"})
	bus.Publish(unitMoved{Name: "archive"})
	bus.Publish(unitDeleted{Name: "registry"})

	require.Equal(t, []string{"registry", "archive"}, moved)
	require.Equal(t, []string{"registry"}, deleted)
}

func TestPublishSurvivesPanickingHandler(t *testing.T) {
	bus := eventbus.NewEventPublisher(logrus.New())

	called := false
	bus.Subscribe(func(ev unitMoved) { panic("boom") })
	bus.Subscribe(func(ev unitMoved) { called = true })

	require.NotPanics(t, func() {
		bus.Publish(unitMoved{Name: "registry"})
	})
	require.True(t, called)
}

func TestUnsubscribe(t *testing.T) {
	bus := eventbus.NewEventPublisher(logrus.New())

	handler := func(ev unitMoved) {}
	bus.Subscribe(handler)
	require.Equal(t, 1, bus.SubscribersCount())

	bus.Unsubscribe(handler)
	require.Equal(t, 0, bus.SubscribersCount())
}

func TestMatchSignature(t *testing.T) {
	require.True(t, eventbus.MatchSignature(func(ev unitMoved) {}, []interface{}{unitMoved{}}))
	require.False(t, eventbus.MatchSignature(func(ev unitMoved) {}, []interface{}{unitDeleted{}}))
	require.False(t, eventbus.MatchSignature("not a func", []interface{}{unitMoved{}}))
	require.False(t, eventbus.MatchSignature(func(a, b unitMoved) {}, []interface{}{unitMoved{}}))
}
