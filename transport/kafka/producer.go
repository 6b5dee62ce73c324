package kafka

import (
	"github.com/Shopify/sarama"

	"github.com/maybeTomorrow/gatekeeper/log"
	"github.com/maybeTomorrow/gatekeeper/messaging"
)

var logger = log.NewModuleLogger(log.Transport)

// Producer publishes egress messages scale-encoded,
// satisfying messaging.Egress so it can sit directly behind
// gatekeeper.New's egressSink argument.
type Producer struct {
	producer sarama.SyncProducer
	admin    sarama.ClusterAdmin
	cfg      *Config
}

// NewProducer dials the broker list and ensures the three outbound
// topics exist, mirroring klaytn's KafkaBroker.newProducer /
// CreateTopic pairing.
func NewProducer(cfg *Config) (*Producer, error) {
	sp, err := sarama.NewSyncProducer(cfg.Brokers, cfg.SaramaConfig)
	if err != nil {
		return nil, err
	}
	admin, err := sarama.NewClusterAdmin(cfg.Brokers, cfg.SaramaConfig)
	if err != nil {
		sp.Close()
		return nil, err
	}

	p := &Producer{producer: sp, admin: admin, cfg: cfg}
	for _, topic := range []string{TopicMiningInfoUpdates, TopicRandomNumbers, TopicKeyDistributions} {
		p.createTopic(topic)
	}
	return p, nil
}

func (p *Producer) createTopic(topic string) {
	err := p.admin.CreateTopic(topic, &sarama.TopicDetail{
		NumPartitions:     p.cfg.Partitions,
		ReplicationFactor: p.cfg.Replicas,
	}, false)
	if err != nil && err != sarama.ErrTopicAlreadyExists {
		logger.Warn("failed to create topic", "topic", topic, "err", err)
	}
}

func (p *Producer) publish(topic string, payload []byte) {
	_, _, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		logger.Error("failed to publish", "topic", topic, "err", err)
	}
}

func (p *Producer) PushMiningInfoUpdate(ev *messaging.MiningInfoUpdateEvent) {
	p.publish(TopicMiningInfoUpdates, ev.Encode())
}

func (p *Producer) PushRandomNumber(ev messaging.OutboundRandomNumber) {
	p.publish(TopicRandomNumbers, ev.Encode())
}

func (p *Producer) PushKeyDistribution(ev messaging.MasterKeyDistribution) {
	p.publish(TopicKeyDistributions, ev.Encode())
}

func (p *Producer) Close() error {
	admErr := p.admin.Close()
	prodErr := p.producer.Close()
	if prodErr != nil {
		return prodErr
	}
	return admErr
}

var _ messaging.Egress = (*Producer)(nil)
