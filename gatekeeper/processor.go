package gatekeeper

import (
	"github.com/maybeTomorrow/gatekeeper/common"
	"github.com/maybeTomorrow/gatekeeper/fixedpoint"
	"github.com/maybeTomorrow/gatekeeper/messaging"
	"github.com/maybeTomorrow/gatekeeper/metrics"
	"github.com/maybeTomorrow/gatekeeper/randomness"
	"github.com/maybeTomorrow/gatekeeper/workerstate"
)

// ProcessMessages is the per-block tick. It drains the
// three typed inboxes in priority order (mining, system, gatekeeper),
// FIFO within each, then runs the post-block reconciliation pass and
// flushes at most one aggregate egress message.
func (s *State) ProcessMessages(block uint32, nowMs uint64) {
	if !s.masterPubkeyOnChain {
		return
	}

	for _, w := range s.workers {
		w.HeartbeatFlag = false
	}

	sumShare := s.sumShare()
	report := messaging.NewMiningInfoUpdateEvent(block, nowMs)

	for {
		if m, ok := s.dispatcher.PopMining(); ok {
			s.processMiningReport(m, block, nowMs, sumShare, report)
			continue
		}
		if m, ok := s.dispatcher.PopSystem(); ok {
			s.processSystemEvent(m, block, nowMs, report)
			continue
		}
		if m, ok := s.dispatcher.PopGatekeeper(); ok {
			s.processGatekeeperEvent(m)
			continue
		}
		break
	}

	s.postBlockPass(block, report)

	if !report.IsEmpty() {
		s.egress.PushMiningInfoUpdate(report)
	}
}

// sumShare computes Σ share() over responsive, actively-mining workers
// once before draining, used as the payout
// proportion denominator for every heartbeat processed this block.
func (s *State) sumShare() fixedpoint.FixedPoint {
	sum := fixedpoint.Zero()
	for _, w := range s.workers {
		if w.Mining != nil && !w.Unresponsive {
			sum = sum.Add(w.Tokenomic.Share())
		}
	}
	return sum
}

func (s *State) processMiningReport(m messaging.MiningReport, block uint32, nowMs uint64, sumShare fixedpoint.FixedPoint, report *messaging.MiningInfoUpdateEvent) {
	if !m.Origin.IsWorker() {
		s.log.Warn("dropping mining report: wrong origin")
		return
	}
	pk := m.Origin.Worker
	w, ok := s.workers[pk]
	if !ok {
		s.log.Warn("dropping heartbeat: unknown worker", "pubkey", pk.Hex())
		return
	}
	hb := m.Heartbeat

	w.LastHeartbeatAtBlock = block
	w.LastHeartbeatForBlock = hb.ChallengeBlock

	front, hasFront := w.FrontChallenge()
	if !hasFront || front != hb.ChallengeBlock {
		s.log.Crit("heartbeat challenge_block mismatch: state poisoned",
			"pubkey", pk.Hex(), "want_front", front, "has_front", hasFront, "got", hb.ChallengeBlock)
		return
	}
	w.PopChallenge()

	if w.Mining == nil || w.Mining.SessionID != hb.SessionID {
		s.log.Debug("dropping heartbeat: stale or absent session", "pubkey", pk.Hex())
		s.snapshotCache.Invalidate(pk)
		return
	}

	w.HeartbeatFlag = true
	w.Tokenomic.UpdateLiveness(hb.ChallengeTime, hb.Iterations)
	w.Tokenomic.ChallengeTimeLast = hb.ChallengeTime
	w.Tokenomic.IterationLast = hb.Iterations

	if !w.Unresponsive {
		payout, treasury := w.Tokenomic.UpdateVHeartbeat(s.tokenomicParams, sumShare, nowMs, block)
		if !payout.IsZero() || !treasury.IsZero() {
			report.Settle = append(report.Settle, messaging.SettleInfo{
				Pubkey: pk, V: w.Tokenomic.V, Payout: payout, Treasury: treasury,
			})
			metrics.MarkPayout(payout.RawUnits())
		}
	}
	s.snapshotCache.Invalidate(pk)
}

func (s *State) processSystemEvent(m messaging.SystemMessage, block uint32, nowMs uint64, report *messaging.MiningInfoUpdateEvent) {
	if !m.Origin.IsPallet() {
		s.log.Warn("dropping system event: wrong origin")
		return
	}

	switch m.Event.Kind {
	case messaging.SystemEventWorkerEvent:
		pk := m.Event.WorkerPubkey
		w, ok := s.workers[pk]
		if !ok {
			w = workerstate.New(pk)
			s.workers[pk] = w
		}
		w.ApplyEvent(m.Event.WorkerEvent, block, nowMs)

		if m.Event.WorkerEvent.Kind == workerstate.EventMiningStop {
			report.Settle = append(report.Settle, messaging.SettleInfo{
				Pubkey: pk, V: w.Tokenomic.V, Payout: fixedpoint.Zero(), Treasury: fixedpoint.Zero(),
			})
		}
		s.snapshotCache.Invalidate(pk)

	case messaging.SystemEventHeartbeatChallenge:
		for pk, w := range s.workers {
			if workerstate.Selected(pk, m.Event.Seed, m.Event.OnlineTarget) {
				w.PushChallenge(block)
				s.snapshotCache.Invalidate(pk)
			}
		}
	}
}

func (s *State) processGatekeeperEvent(m messaging.GatekeeperMessage) {
	switch m.Event.Kind {
	case messaging.GatekeeperEventNewRandomNumber:
		if !m.Origin.IsGatekeeper() {
			s.log.Warn("dropping random number event: wrong origin")
			return
		}
		if !randomness.Verify(s.masterKey, m.Event.BlockNumber, m.Event.LastRandomNumber, m.Event.RandomNumber) {
			s.log.Crit("random number verification failed: state poisoned", "block", m.Event.BlockNumber)
			return
		}
		s.lastRandomNumber = m.Event.RandomNumber

	case messaging.GatekeeperEventTokenomicParametersChanged:
		if !m.Origin.IsPallet() {
			s.log.Warn("dropping tokenomic parameters change: wrong origin")
			return
		}
		s.tokenomicParams = m.Event.Params
	}
}

// postBlockPass iterates workers in sorted-pubkey order, detecting offline/recovery
// transitions and applying idle or slash updates.
func (s *State) postBlockPass(block uint32, report *messaging.MiningInfoUpdateEvent) {
	pubkeys := make([]common.WorkerPubkey, 0, len(s.workers))
	for pk := range s.workers {
		pubkeys = append(pubkeys, pk)
	}
	sorted := common.SortPubkeys(pubkeys)

	online, unresponsive := 0, 0
	for _, pk := range sorted {
		w := s.workers[pk]
		w.OnBlockProcessed(block)

		if w.Mining == nil {
			continue
		}
		online++

		switch {
		case w.Unresponsive && w.HeartbeatFlag:
			w.Unresponsive = false
			report.RecoveredToOnline = append(report.RecoveredToOnline, pk)
			w.LastResponsiveTransition = workerstate.ResponsiveTransition{EnteredUnresponsive: false, AtBlock: block, Valid: true}
			metrics.MarkRecoveredEvents(1)
		case !w.Unresponsive:
			if front, ok := w.FrontChallenge(); ok && block > front+s.tokenomicParams.HeartbeatWindow {
				report.Offline = append(report.Offline, pk)
				w.Unresponsive = true
				w.LastResponsiveTransition = workerstate.ResponsiveTransition{EnteredUnresponsive: true, AtBlock: block, Valid: true}
				metrics.MarkOfflineEvents(1)
			}
		}

		if w.Unresponsive {
			w.Tokenomic.UpdateVSlash(s.tokenomicParams, block)
			metrics.MarkSlash(w.Tokenomic.LastSlash.RawUnits())
			unresponsive++
		} else if !w.HeartbeatFlag {
			w.Tokenomic.UpdateVIdle(s.tokenomicParams)
		}

		s.snapshotCache.Invalidate(pk)
	}

	metrics.SetWorkerCounts(online, unresponsive)
}
