package tokenomic

import "github.com/maybeTomorrow/gatekeeper/fixedpoint"

// Info is the per-worker fixed-point economic state. It is a plain value
// type embedded in each worker record: MiningStart resets it wholesale
// (see Reset below), and the message processor updates it in place
// through the worker's pointer in the worker map.
type Info struct {
	V        fixedpoint.FixedPoint
	VInit    fixedpoint.FixedPoint
	Payable  fixedpoint.FixedPoint
	PBench   fixedpoint.FixedPoint
	PInstant fixedpoint.FixedPoint

	ConfidenceLevel uint8

	VUpdateAtMs       uint64
	VUpdateBlock      uint32
	IterationLast     uint64
	ChallengeTimeLast uint64

	LastPayout        fixedpoint.FixedPoint
	LastPayoutAtBlock uint32
	TotalPayout       fixedpoint.FixedPoint
	TotalPayoutCount  uint32

	LastSlash        fixedpoint.FixedPoint
	LastSlashAtBlock uint32
	TotalSlash       fixedpoint.FixedPoint
	TotalSlashCount  uint32
}

// confScore maps a confidence level to its tokenomic weight.
func confScore(level uint8) fixedpoint.FixedPoint {
	switch level {
	case 1, 2, 3, 128:
		return fixedpoint.MustParseDecimal("1")
	case 4:
		return fixedpoint.MustParseDecimal("0.8")
	case 5:
		return fixedpoint.MustParseDecimal("0.7")
	default:
		return fixedpoint.Zero()
	}
}

// Reset resets a worker's economic state to a fresh mining session,
// preserving only ConfidenceLevel (gk.rs WorkerEvent::MiningStart
// handling). waiting_heartbeats is NOT part of this struct and is
// untouched by design — it lives on the worker state machine and must
// survive across sessions.
func (i *Info) Reset(initV, initP fixedpoint.FixedPoint, nowMs uint64, block uint32) {
	confidence := i.ConfidenceLevel
	*i = Info{
		V:                 initV,
		VInit:             initV,
		PBench:            initP,
		PInstant:          initP,
		ConfidenceLevel:   confidence,
		VUpdateAtMs:       nowMs,
		VUpdateBlock:      block,
		ChallengeTimeLast: nowMs,
	}
}

// Share is a worker's weight for payout proportioning:
// sqrt(v^2 + (2*p_instant*conf_score(confidence))^2).
func (i Info) Share() fixedpoint.FixedPoint {
	two := fixedpoint.FromUint64(2)
	vSq := i.V.Mul(i.V)
	pTerm := two.Mul(i.PInstant).Mul(confScore(i.ConfidenceLevel))
	pSq := pTerm.Mul(pTerm)
	return vSq.Add(pSq).Sqrt()
}

// UpdateVIdle is case 1: mining idle, no heartbeat this block.
func (i *Info) UpdateVIdle(p Params) {
	costIdle := p.CostK.Mul(i.PBench).Add(p.CostB)
	var perfMult fixedpoint.FixedPoint
	if i.PBench.IsZero() {
		perfMult = fixedpoint.FromUint64(1)
	} else {
		perfMult = i.PInstant.Div(i.PBench)
	}
	rhoMinusOne := p.Rho.Sub(fixedpoint.FromUint64(1))
	deltaV := perfMult.Mul(rhoMinusOne.Mul(i.V).Add(costIdle))
	i.V = i.V.Add(deltaV).Min(p.VMax)
	i.Payable = i.Payable.Add(deltaV)
}

// UpdateVHeartbeat is case 2: successful heartbeat while responsive.
// Returns (payout, treasury), both zero when no payout is due.
func (i *Info) UpdateVHeartbeat(p Params, sumShare fixedpoint.FixedPoint, nowMs uint64, block uint32) (payout, treasury fixedpoint.FixedPoint) {
	zero := fixedpoint.Zero()
	if sumShare.IsZero() {
		return zero, zero
	}
	if i.Payable.IsZero() {
		return zero, zero
	}
	if block <= i.VUpdateBlock {
		// May receive more than one heartbeat for a single worker in a single block.
		return zero, zero
	}
	share := i.Share()
	if share.IsZero() {
		return zero, zero
	}

	blocks := fixedpoint.FromUint64(uint64(block - i.VUpdateBlock))
	budget := share.Div(sumShare).Mul(p.BudgetPerBlock).Mul(blocks)
	toPayout := budget.Mul(p.PayoutRation)
	toTreasury := budget.Mul(p.TreasuryRation)

	actualPayout := i.Payable.Max(zero).Min(toPayout)
	actualTreasury := zero
	if !toPayout.IsZero() {
		actualTreasury = actualPayout.Div(toPayout).Mul(toTreasury)
	}

	i.V = i.V.Sub(actualPayout)
	i.Payable = zero
	i.VUpdateAtMs = nowMs
	i.VUpdateBlock = block

	i.LastPayout = actualPayout
	i.LastPayoutAtBlock = block
	i.TotalPayout = i.TotalPayout.Add(actualPayout)
	i.TotalPayoutCount++

	return actualPayout, actualTreasury
}

// UpdateVSlash is cases 3 & 4: heartbeat window expired, or still
// unresponsive.
func (i *Info) UpdateVSlash(p Params, block uint32) {
	slash := i.V.Mul(p.SlashRate)
	i.V = i.V.Sub(slash)
	i.Payable = fixedpoint.Zero()

	i.LastSlash = slash
	i.LastSlashAtBlock = block
	i.TotalSlash = i.TotalSlash.Add(slash)
	i.TotalSlashCount++
}

// UpdateLiveness updates p_instant from a worker-reported iteration
// count. No-op if now_ms has not advanced since the last
// challenge; resets the iteration baseline if the worker rebooted
// (iterations regressed).
func (i *Info) UpdateLiveness(nowMs uint64, iterations uint64) {
	if nowMs <= i.ChallengeTimeLast {
		return
	}
	if iterations < i.IterationLast {
		i.IterationLast = iterations
	}
	dt := fixedpoint.FromUint64(nowMs - i.ChallengeTimeLast).Div(fixedpoint.FromUint64(1000))
	delta := fixedpoint.FromUint64(iterations - i.IterationLast)
	p := delta.Div(dt).Mul(fixedpoint.FromUint64(6)) // 6-second iteration window
	i.PInstant = p.Min(i.PBench.Mul(fixedpoint.MustParseDecimal("1.2")))
}
