package kafka

import (
	"context"
	"encoding/json"

	"github.com/Shopify/sarama"
	"github.com/hashicorp/go-uuid"

	"github.com/maybeTomorrow/gatekeeper/messaging"
)

// Consumer drains the three inbound topics into a messaging.Dispatcher.
// Unlike the scale-encoded egress side, inbound messages arrive as JSON
// (they originate from an off-chain indexer replaying already-decoded
// pallet/worker events, not from a chain extrinsic), so decoding here
// is ordinary encoding/json rather than the scale package.
//
// ConsumeClaim only ever appends to the Dispatcher's FIFO slices; it
// never calls gatekeeper.State directly, keeping every blocking or
// nondeterministic concern (network I/O, consumer-group rebalancing)
// outside the deterministic core.
type Consumer struct {
	group      sarama.ConsumerGroup
	dispatcher *messaging.Dispatcher
}

// NewConsumer joins the configured consumer group, adapted from
// klaytn's KafkaBroker.newConsumer (client ID disambiguated with a
// generated UUID so multiple gatekeeper replicas don't collide).
func NewConsumer(cfg *Config, dispatcher *messaging.Dispatcher) (*Consumer, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, err
	}
	cfg.SaramaConfig.ClientID = cfg.GroupID + "-" + id

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, cfg.SaramaConfig)
	if err != nil {
		return nil, err
	}
	return &Consumer{group: group, dispatcher: dispatcher}, nil
}

// Run blocks, re-joining the consumer group on every rebalance, until
// ctx is cancelled. It is meant to be run in its own goroutine by
// cmd/gatekeeper, never from inside ProcessMessages.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		if err := c.group.Consume(ctx, InboundTopics(), c); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error("consumer group session ended", "err", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) Close() error {
	return c.group.Close()
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := c.dispatch(msg); err != nil {
			logger.Error("dropping malformed inbound message", "topic", msg.Topic, "err", err)
		}
		session.MarkMessage(msg, "")
	}
	return nil
}

func (c *Consumer) dispatch(msg *sarama.ConsumerMessage) error {
	switch msg.Topic {
	case TopicMiningReports:
		var m messaging.MiningReport
		if err := json.Unmarshal(msg.Value, &m); err != nil {
			return err
		}
		c.dispatcher.DispatchMining(m)

	case TopicSystemEvents:
		var m messaging.SystemMessage
		if err := json.Unmarshal(msg.Value, &m); err != nil {
			return err
		}
		c.dispatcher.DispatchSystem(m)

	case TopicGatekeeperEvents:
		var m messaging.GatekeeperMessage
		if err := json.Unmarshal(msg.Value, &m); err != nil {
			return err
		}
		c.dispatcher.DispatchGatekeeper(m)
	}
	return nil
}
