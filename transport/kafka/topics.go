package kafka

// Topic names. The three inbound topics feed messaging.Dispatcher's
// three typed inboxes one-to-one; the three outbound
// topics mirror messaging.Egress's three push methods.
const (
	TopicMiningReports     = "gatekeeper.mining_reports"
	TopicSystemEvents      = "gatekeeper.system_events"
	TopicGatekeeperEvents  = "gatekeeper.gatekeeper_events"
	TopicMiningInfoUpdates = "gatekeeper.mining_info_updates"
	TopicRandomNumbers     = "gatekeeper.random_numbers"
	TopicKeyDistributions  = "gatekeeper.key_distributions"
)

// InboundTopics lists every topic the consumer group subscribes to.
func InboundTopics() []string {
	return []string{TopicMiningReports, TopicSystemEvents, TopicGatekeeperEvents}
}
