package kafka

import (
	"encoding/json"
	"testing"

	"github.com/Shopify/sarama"
	"github.com/stretchr/testify/assert"

	"github.com/maybeTomorrow/gatekeeper/messaging"
	"github.com/maybeTomorrow/gatekeeper/workerstate"
)

func TestDispatchRoutesMiningReportToMiningInbox(t *testing.T) {
	d := messaging.NewDispatcher()
	c := &Consumer{dispatcher: d}

	payload, err := json.Marshal(messaging.MiningReport{
		Origin:    messaging.FromWorker([32]byte{1}),
		Heartbeat: messaging.Heartbeat{SessionID: 1, ChallengeBlock: 2, ChallengeTime: 3, Iterations: 4},
	})
	assert.NoError(t, err)

	assert.NoError(t, c.dispatch(&sarama.ConsumerMessage{Topic: TopicMiningReports, Value: payload}))

	got, ok := d.PopMining()
	assert.True(t, ok)
	assert.Equal(t, uint32(1), got.Heartbeat.SessionID)
	assert.True(t, d.Empty())
}

func TestDispatchRoutesSystemEventToSystemInbox(t *testing.T) {
	d := messaging.NewDispatcher()
	c := &Consumer{dispatcher: d}

	payload, err := json.Marshal(messaging.SystemMessage{
		Origin: messaging.FromPallet(),
		Event: messaging.SystemEvent{
			Kind:         messaging.SystemEventWorkerEvent,
			WorkerPubkey: [32]byte{9},
			WorkerEvent:  workerstate.WorkerEvent{Kind: workerstate.EventRegistered, ConfidenceLevel: 2},
		},
	})
	assert.NoError(t, err)

	assert.NoError(t, c.dispatch(&sarama.ConsumerMessage{Topic: TopicSystemEvents, Value: payload}))

	got, ok := d.PopSystem()
	assert.True(t, ok)
	assert.Equal(t, messaging.SystemEventWorkerEvent, got.Event.Kind)
	assert.Equal(t, uint8(2), got.Event.WorkerEvent.ConfidenceLevel)
}

func TestDispatchRoutesGatekeeperEventToGatekeeperInbox(t *testing.T) {
	d := messaging.NewDispatcher()
	c := &Consumer{dispatcher: d}

	payload, err := json.Marshal(messaging.GatekeeperMessage{
		Origin: messaging.FromGatekeeper(),
		Event: messaging.GatekeeperEvent{
			Kind:        messaging.GatekeeperEventNewRandomNumber,
			BlockNumber: 5,
		},
	})
	assert.NoError(t, err)

	assert.NoError(t, c.dispatch(&sarama.ConsumerMessage{Topic: TopicGatekeeperEvents, Value: payload}))

	got, ok := d.PopGatekeeper()
	assert.True(t, ok)
	assert.Equal(t, uint32(5), got.Event.BlockNumber)
}

func TestDispatchReturnsErrorOnMalformedJSONWithoutDispatching(t *testing.T) {
	d := messaging.NewDispatcher()
	c := &Consumer{dispatcher: d}

	err := c.dispatch(&sarama.ConsumerMessage{Topic: TopicMiningReports, Value: []byte("not json")})
	assert.Error(t, err)
	assert.True(t, d.Empty())
}

func TestDispatchIgnoresUnknownTopic(t *testing.T) {
	d := messaging.NewDispatcher()
	c := &Consumer{dispatcher: d}

	assert.NoError(t, c.dispatch(&sarama.ConsumerMessage{Topic: "some.other.topic", Value: []byte("irrelevant")}))
	assert.True(t, d.Empty())
}
