package chain

import (
	"context"
	"encoding/hex"
	"io"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal.NewFromString(%q): %v", s, err)
	}
	return d
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func topicHex(word []byte) string {
	return "0x" + hex.EncodeToString(padWord(word))
}

// schemeCreatedLog encodes a SchemeCreated(uint256 indexed, string, uint256,
// address) log the way the ledger emits it.
func schemeCreatedLog(t *testing.T, id int64, name string, amountWei *big.Int, creator string) Log {
	t.Helper()

	creatorWord, err := addressWord(creator)
	if err != nil {
		t.Fatalf("addressWord(%q): %v", creator, err)
	}

	// slot0: offset to name (past the three head words), slot1: amount,
	// slot2: creator, then length-prefixed name bytes.
	var data []byte
	data = append(data, padWord(uintWord(3*wordSize))...)
	data = append(data, padWord(amountWei.Bytes())...)
	data = append(data, padWord(creatorWord)...)
	data = append(data, padWord(uintWord(int64(len(name))))...)
	nameWord := make([]byte, (len(name)+wordSize-1)/wordSize*wordSize)
	copy(nameWord, name)
	data = append(data, nameWord...)

	return Log{
		Address: testProgram,
		Topics:  []string{eventTopic(sigSchemeCreated), topicHex(uintWord(id))},
		Data:    data,
	}
}

func TestParseSchemeCreated(t *testing.T) {
	wei, _ := new(big.Int).SetString("5000000000000000000", 10)
	l := schemeCreatedLog(t, 7, "Drought Relief", wei, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	ev, ok := ParseSchemeCreated(l)
	if !ok {
		t.Fatal("ParseSchemeCreated() ok = false")
	}
	if ev.SchemeID != 7 {
		t.Errorf("SchemeID = %d, want 7", ev.SchemeID)
	}
	if ev.Name != "Drought Relief" {
		t.Errorf("Name = %q, want %q", ev.Name, "Drought Relief")
	}
	if !ev.Amount.Equal(decimalFromString(t, "5")) {
		t.Errorf("Amount = %s, want 5", ev.Amount)
	}
	if ev.Creator != "0x70997970c51812dc3a010c7d01b50e0d17dc79c8" {
		t.Errorf("Creator = %q", ev.Creator)
	}
}

func TestParseSchemeCreatedIgnoresOtherEvents(t *testing.T) {
	l := Log{
		Topics: []string{eventTopic(sigFarmerRegistered), topicHex(uintWord(1))},
	}
	if _, ok := ParseSchemeCreated(l); ok {
		t.Fatal("ParseSchemeCreated() decoded a FarmerRegistered log")
	}
}

func TestExtractSchemeIDFromEvent(t *testing.T) {
	wei := big.NewInt(1)
	receipt := &Receipt{
		Status: 1,
		Logs: []Log{
			{Topics: []string{eventTopic(sigFarmerRegistered)}},
			schemeCreatedLog(t, 42, "x", wei, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"),
		},
	}
	// Counter would disagree; the event must win.
	gw := &fakeGateway{stats: &Statistics{TotalSchemes: 100}}
	e := NewExtractor(gw, quietLogger())

	got := e.ExtractSchemeID(context.Background(), receipt)
	if got.SchemeID != 42 || got.Source != "event" || got.Provisional {
		t.Fatalf("ExtractSchemeID() = %+v, want id 42 from event", got)
	}
	if gw.statsCalls != 0 {
		t.Errorf("statsCalls = %d, want 0 when the event decodes", gw.statsCalls)
	}
}

func TestExtractSchemeIDCounterFallback(t *testing.T) {
	receipt := &Receipt{Status: 1} // no logs survived
	gw := &fakeGateway{stats: &Statistics{TotalSchemes: 8}}
	e := NewExtractor(gw, quietLogger())

	got := e.ExtractSchemeID(context.Background(), receipt)
	if got.SchemeID != 7 || got.Source != "counter" {
		t.Fatalf("ExtractSchemeID() = %+v, want id 7 from counter", got)
	}
	if !got.Provisional {
		t.Error("counter-derived id not flagged provisional; a concurrent assignment can yield a neighbour's id")
	}
}

func TestExtractSchemeIDSyntheticFallback(t *testing.T) {
	gw := &fakeGateway{statsErr: context.DeadlineExceeded}
	e := NewExtractor(gw, quietLogger())

	got := e.ExtractSchemeID(context.Background(), nil)
	if got.SchemeID >= 0 {
		t.Errorf("SchemeID = %d, want negative synthetic id", got.SchemeID)
	}
	if got.Source != "synthetic" || !got.Provisional {
		t.Errorf("ExtractSchemeID() = %+v, want provisional synthetic", got)
	}
}

func TestExtractSchemeIDCounterAtZero(t *testing.T) {
	// A fresh program with no schemes cannot have assigned an id yet.
	gw := &fakeGateway{stats: &Statistics{TotalSchemes: 0}}
	e := NewExtractor(gw, quietLogger())

	got := e.ExtractSchemeID(context.Background(), &Receipt{Status: 1})
	if got.Source != "synthetic" || !got.Provisional {
		t.Fatalf("ExtractSchemeID() = %+v, want synthetic when counter is zero", got)
	}
}
