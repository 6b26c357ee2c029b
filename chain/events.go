package chain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SchemeCreatedEvent is the decoded payload of one SchemeCreated log.
type SchemeCreatedEvent struct {
	SchemeID int64
	Name     string
	Amount   decimal.Decimal
	Creator  string
}

// ParseSchemeCreated decodes a SchemeCreated event from a single log entry.
// Returns (nil, false) when the log is some other event.
func ParseSchemeCreated(l Log) (*SchemeCreatedEvent, bool) {
	if len(l.Topics) < 2 || l.Topics[0] != eventTopic(sigSchemeCreated) {
		return nil, false
	}
	id, err := uintFromTopic(l.Topics[1])
	if err != nil {
		return nil, false
	}

	ev := &SchemeCreatedEvent{SchemeID: id}
	// Non-indexed payload: (string name, uint256 amount, address creator).
	r := newABIReader(l.Data)
	if ev.Name, err = r.stringAt(0); err != nil {
		return nil, false
	}
	amount, err := r.bigAt(1)
	if err != nil {
		return nil, false
	}
	ev.Amount = weiToDecimal(amount)
	if ev.Creator, err = r.addressAt(2); err != nil {
		return nil, false
	}
	return ev, true
}

// ExtractedID is the recovered scheme identifier plus how it was obtained.
type ExtractedID struct {
	SchemeID int64
	Source   string // "event", "counter" or "synthetic"
	// Provisional marks identifiers that were not proven by the receipt
	// itself: counter-derived ids (a concurrent assignment can yield a
	// neighbour's id) and synthetic placeholders. The stored record stays
	// provisional until a ledger-sourced sync re-proves it.
	Provisional bool
}

// idStrategy attempts one way of recovering the assigned scheme identifier.
// ok=false means "try the next strategy", never a hard failure.
type idStrategy func(ctx context.Context, receipt *Receipt) (ExtractedID, bool)

// Extractor recovers the ledger-assigned scheme identifier from a confirmed
// transaction. The straightforward call path does not return it, so the
// extractor runs an ordered list of strategies and takes the first success.
type Extractor struct {
	strategies []idStrategy
	log        *logrus.Logger
}

func NewExtractor(gateway Gateway, log *logrus.Logger) *Extractor {
	e := &Extractor{log: log}
	e.strategies = []idStrategy{
		e.fromEvent,
		counterStrategy(gateway, log),
		syntheticStrategy(log),
	}
	return e
}

// ExtractSchemeID never fails: the last strategy always produces a value.
func (e *Extractor) ExtractSchemeID(ctx context.Context, receipt *Receipt) ExtractedID {
	for _, strategy := range e.strategies {
		if id, ok := strategy(ctx, receipt); ok {
			return id
		}
	}
	// Unreachable: syntheticStrategy always succeeds.
	return ExtractedID{SchemeID: -time.Now().UnixNano(), Source: "synthetic", Provisional: true}
}

// fromEvent returns the identifier carried by the first decodable
// SchemeCreated log, in log order.
func (e *Extractor) fromEvent(_ context.Context, receipt *Receipt) (ExtractedID, bool) {
	if receipt == nil {
		return ExtractedID{}, false
	}
	for _, l := range receipt.Logs {
		if ev, ok := ParseSchemeCreated(l); ok {
			return ExtractedID{SchemeID: ev.SchemeID, Source: "event"}, true
		}
	}
	return ExtractedID{}, false
}

// counterStrategy derives the identifier as "current scheme counter minus
// one". Only valid while the ledger assigns identifiers sequentially from a
// single writer; a concurrent assignment between the creation and this read
// silently yields a neighbour's id. The result is therefore provisional and
// must be re-proven by a later ledger-sourced sync.
func counterStrategy(gateway Gateway, log *logrus.Logger) idStrategy {
	return func(ctx context.Context, _ *Receipt) (ExtractedID, bool) {
		stats, err := gateway.Statistics(ctx)
		if err != nil {
			log.WithError(err).Warn("scheme id counter read failed, falling back")
			return ExtractedID{}, false
		}
		if stats.TotalSchemes < 1 {
			return ExtractedID{}, false
		}
		return ExtractedID{SchemeID: stats.TotalSchemes - 1, Source: "counter", Provisional: true}, true
	}
}

// syntheticStrategy mints a locally unique placeholder. Negative so it can
// never collide with a ledger-assigned id and stays recognizable until
// reconciliation replaces it.
func syntheticStrategy(log *logrus.Logger) idStrategy {
	return func(_ context.Context, _ *Receipt) (ExtractedID, bool) {
		id := -time.Now().UnixNano()
		log.WithField("schemeId", id).Warn("using synthetic scheme id; record will be provisional until next sync")
		return ExtractedID{SchemeID: id, Source: "synthetic", Provisional: true}, true
	}
}
