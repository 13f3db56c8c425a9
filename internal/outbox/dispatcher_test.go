package outbox

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"example.com/progression/pkg/events"
)

func newTestDispatcher(producer messageWriter, registry schemaRegistrar) *Dispatcher {
	logger, _ := logtest.NewNullLogger()
	return NewDispatcher(nil, producer, registry, time.Second, 10, WithLogger(logger))
}

func testMessage(eventID int64, eventType, topic string) Message {
	return Message{
		EventID:       eventID,
		UserID:        "user-1",
		AggregateType: "progress",
		AggregateID:   "user-1",
		EventType:     eventType,
		Topic:         topic,
		SchemaSubject: topic + "-value",
		PartitionKey:  "user-1",
		Payload:       json.RawMessage(`{"user_id":"user-1"}`),
	}
}

func headers(msg kafka.Message) map[string]string {
	out := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		out[h.Key] = string(h.Value)
	}
	return out
}

func TestEncodeWireFormat(t *testing.T) {
	frame := encodeWireFormat(42, []byte(`{}`))

	require.Len(t, frame, 7)
	require.Equal(t, byte(0), frame[0])
	require.Equal(t, uint32(42), binary.BigEndian.Uint32(frame[1:5]))
	require.Equal(t, `{}`, string(frame[5:]))
}

func TestDeliverGroupsByTopicAndSetsHeaders(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{id: 7}
	dispatcher := newTestDispatcher(producer, registry)

	err := dispatcher.deliver(context.Background(), []Message{
		testMessage(1, events.TypeProgressUpdated, events.TopicProgress),
		testMessage(2, events.TypeWorkoutLogged, events.TopicWorkoutLogs),
		testMessage(3, events.TypeProgressUpdated, events.TopicProgress),
	})
	require.NoError(t, err)

	require.Len(t, producer.writes, 2)
	require.Equal(t, events.TopicProgress, producer.writes[0].topic)
	require.Len(t, producer.writes[0].messages, 2)
	require.Equal(t, events.TopicWorkoutLogs, producer.writes[1].topic)

	record := producer.writes[0].messages[0]
	require.Equal(t, "user-1", string(record.Key))
	require.Equal(t, uint32(7), binary.BigEndian.Uint32(record.Value[1:5]))
	require.JSONEq(t, `{"user_id":"user-1"}`, string(record.Value[5:]))
	require.Equal(t, map[string]string{
		HeaderEventType:     events.TypeProgressUpdated,
		HeaderUserID:        "user-1",
		HeaderSchemaSubject: events.TopicProgress + "-value",
	}, headers(record))

	require.Len(t, registry.calls, 2, "schema ids are cached per subject")
}

func TestDeliverUnknownEventTypeFailsBeforeWriting(t *testing.T) {
	producer := &stubProducer{}
	registry := &stubRegistry{}
	dispatcher := newTestDispatcher(producer, registry)

	err := dispatcher.deliver(context.Background(), []Message{
		testMessage(1, events.TypeProgressUpdated, events.TopicProgress),
		testMessage(2, "progress.unknown", events.TopicProgress),
	})
	require.ErrorContains(t, err, "no schema metadata for event_type=progress.unknown")
	require.Empty(t, producer.writes)
}

func TestDeliverPropagatesRegistryAndProducerErrors(t *testing.T) {
	dispatcher := newTestDispatcher(&stubProducer{}, &stubRegistry{err: errors.New("registry down")})
	err := dispatcher.deliver(context.Background(), []Message{testMessage(1, events.TypeProgressReset, events.TopicProgress)})
	require.ErrorContains(t, err, "registry down")

	dispatcher = newTestDispatcher(&stubProducer{err: errors.New("broker down")}, &stubRegistry{})
	err = dispatcher.deliver(context.Background(), []Message{testMessage(1, events.TypeProgressReset, events.TopicProgress)})
	require.ErrorContains(t, err, "broker down")
	require.ErrorContains(t, err, events.TopicProgress)
}

func TestEveryEventTypeHasAValidSchema(t *testing.T) {
	for _, eventType := range []string{events.TypeProgressUpdated, events.TypeWorkoutLogged, events.TypeProgressReset} {
		entry, ok := schemaCatalog[eventType]
		require.True(t, ok, eventType)
		require.True(t, json.Valid([]byte(entry.Schema)), eventType)
	}
}

func TestBackoffDelay(t *testing.T) {
	manager := NewDLQManager(nil, 3, time.Minute, WithLogger(logrus.New()))

	require.Equal(t, time.Minute, manager.backoffDelay(1))
	require.Equal(t, 2*time.Minute, manager.backoffDelay(2))
	require.Equal(t, 8*time.Minute, manager.backoffDelay(4))
	require.Equal(t, time.Hour, manager.backoffDelay(8))
	require.Equal(t, time.Hour, manager.backoffDelay(64))
}

func TestNewDLQManagerDefaults(t *testing.T) {
	manager := NewDLQManager(nil, 0, 0)
	require.Equal(t, 5, manager.maxRetries)
	require.Equal(t, time.Minute, manager.baseDelay)
}
