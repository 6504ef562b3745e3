//go:build integration

package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luluspa/spa-booking-backend/internal/adapters/events"
	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
	"github.com/luluspa/spa-booking-backend/internal/domain/providers"
)

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	channel := providers.EventChannelBookingUpdates
	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, channel)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, channel)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := &entities.BookingEvent{
		ID:          uuid.New().String(),
		BookingID:   "bk-redis-1",
		BookingCode: "BOOK100001",
		EventType:   entities.BookingEventCreated,
		Status:      entities.BookingStatusPending,
		Timestamp:   time.Now(),
	}

	err = eventBus.Publish(context.Background(), channel, event)
	require.NoError(t, err)

	received1 := waitForBookingEvent(t, sub1)
	received2 := waitForBookingEvent(t, sub2)

	assert.Equal(t, event.ID, received1.ID)
	assert.Equal(t, event.ID, received2.ID)
	assert.Equal(t, entities.BookingEventCreated, received1.EventType)
}

func TestRedisEventBusStaffChannelIsolation(t *testing.T) {
	if os.Getenv("TEST_REDIS_HOST") == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}

	redisClient := newTestRedisClient(t)
	defer redisClient.Close()

	eventBus := events.NewRedisEventBus(redisClient)
	defer eventBus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	staffSub, err := eventBus.Subscribe(ctx, providers.GetStaffChannel("staff-redis-1"))
	require.NoError(t, err)
	otherSub, err := eventBus.Subscribe(ctx, providers.GetStaffChannel("staff-redis-2"))
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	staffID := "staff-redis-1"
	event := &entities.BookingEvent{
		ID:            uuid.New().String(),
		BookingID:     "bk-redis-2",
		BookingCode:   "BOOK100002",
		EventType:     entities.BookingEventAssigned,
		Status:        entities.BookingStatusPending,
		AssignedStaff: &staffID,
		Timestamp:     time.Now(),
	}

	err = eventBus.Publish(context.Background(), providers.GetStaffChannel(staffID), event)
	require.NoError(t, err)

	received := waitForBookingEvent(t, staffSub)
	assert.Equal(t, event.ID, received.ID)

	select {
	case stray := <-otherSub:
		t.Fatalf("event %s leaked to another staff channel", stray.ID)
	case <-time.After(200 * time.Millisecond):
	}
}

func waitForBookingEvent(t *testing.T, ch <-chan *entities.BookingEvent) *entities.BookingEvent {
	t.Helper()
	select {
	case event := <-ch:
		require.NotNil(t, event)
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for booking event")
		return nil
	}
}
