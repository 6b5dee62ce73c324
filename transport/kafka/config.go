// Package kafka adapts a Kafka-backed message queue onto
// messaging.Dispatcher and messaging.Egress. It stands in for an
// out-of-scope signed message-queue transport, and is wired only at the
// cmd/gatekeeper edge: nothing in this package is imported by the
// deterministic core.
package kafka

import (
	"time"

	"github.com/Shopify/sarama"
)

const (
	DefaultReplicas   = 1
	DefaultPartitions = 1
)

// Config bundles the sarama client configuration with the handful of
// gatekeeper-specific knobs, the way klaytn's chaindatafetcher/kafka
// package separates SaramaConfig from its own Partitions/Replicas.
type Config struct {
	SaramaConfig *sarama.Config
	Brokers      []string
	GroupID      string
	Partitions   int32
	Replicas     int16
}

// DefaultConfig returns a Config tuned for at-least-once delivery of
// small control messages: synchronous produce acks, short consumer
// group heartbeats so an unresponsive gatekeeper process is noticed
// quickly by the broker.
func DefaultConfig(brokers []string, groupID string) *Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.MaxVersion
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Return.Successes = true
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Flush.Frequency = 500 * time.Millisecond
	cfg.Consumer.Group.Session.Timeout = 6 * time.Second
	cfg.Consumer.Group.Heartbeat.Interval = 2 * time.Second
	cfg.Consumer.Return.Errors = true

	return &Config{
		SaramaConfig: cfg,
		Brokers:      brokers,
		GroupID:      groupID,
		Partitions:   DefaultPartitions,
		Replicas:     DefaultReplicas,
	}
}
