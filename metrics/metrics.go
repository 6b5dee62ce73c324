// Package metrics wires worker-liveness and payout/slash counters into
// rcrowley/go-metrics, the metering library klaytn uses throughout its
// storage and chain-data-fetcher layers. Only the gatekeeper package
// imports it: the message processor updates it as an ambient side effect
// of each processed block.
package metrics

import gometrics "github.com/rcrowley/go-metrics"

var (
	workersOnline       = gometrics.NewRegisteredGauge("gatekeeper/workers/online", gometrics.DefaultRegistry)
	workersUnresponsive = gometrics.NewRegisteredGauge("gatekeeper/workers/unresponsive", gometrics.DefaultRegistry)

	payoutMeter = gometrics.NewRegisteredMeter("gatekeeper/tokenomic/payout", gometrics.DefaultRegistry)
	slashMeter  = gometrics.NewRegisteredMeter("gatekeeper/tokenomic/slash", gometrics.DefaultRegistry)

	offlineMeter  = gometrics.NewRegisteredMeter("gatekeeper/workers/offline_events", gometrics.DefaultRegistry)
	recoverMeter  = gometrics.NewRegisteredMeter("gatekeeper/workers/recovered_events", gometrics.DefaultRegistry)
)

// SetWorkerCounts updates the online/unresponsive worker gauges. Called
// once per block from the façade's post-block pass.
func SetWorkerCounts(online, unresponsive int) {
	workersOnline.Update(int64(online))
	workersUnresponsive.Update(int64(unresponsive))
}

// MarkPayout records a settlement's raw payout amount (in fixed-point
// raw units, saturated to int64 for the meter — this is observability
// only, never the authoritative ledger value).
func MarkPayout(rawUnits int64) {
	payoutMeter.Mark(rawUnits)
}

func MarkSlash(rawUnits int64) {
	slashMeter.Mark(rawUnits)
}

func MarkOfflineEvents(n int64) {
	offlineMeter.Mark(n)
}

func MarkRecoveredEvents(n int64) {
	recoverMeter.Mark(n)
}
