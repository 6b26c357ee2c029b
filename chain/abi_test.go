package chain

import (
	"bytes"
	"math/big"
	"testing"
)

// wordOf builds one 32-byte word from the given tail bytes.
func wordOf(tail ...byte) []byte {
	return padWord(tail)
}

func TestStringAtRejectsOversizedLength(t *testing.T) {
	// Offset points just past the head word; the length word claims 2^120
	// bytes. start+length used to wrap negative and panic the slice.
	var data []byte
	data = append(data, wordOf(0x20)...)
	huge := make([]byte, wordSize)
	huge[16] = 0x01
	data = append(data, huge...)

	if _, err := newABIReader(data).stringAt(0); err == nil {
		t.Fatal("stringAt() accepted a length larger than the payload")
	}
}

func TestStringAtRejectsOversizedOffset(t *testing.T) {
	var data []byte
	huge := bytes.Repeat([]byte{0xff}, wordSize)
	data = append(data, huge...)
	data = append(data, wordOf(0x00)...)

	if _, err := newABIReader(data).stringAt(0); err == nil {
		t.Fatal("stringAt() accepted an offset larger than the payload")
	}
}

func TestTupleAtRejectsOversizedOffset(t *testing.T) {
	data := bytes.Repeat([]byte{0xff}, wordSize)
	if _, err := newABIReader(data).tupleAt(0); err == nil {
		t.Fatal("tupleAt() accepted an offset larger than the payload")
	}
}

func TestStringAtRoundTrip(t *testing.T) {
	var data []byte
	data = append(data, wordOf(0x20)...)
	data = append(data, padWord(uintWord(5))...)
	word := make([]byte, wordSize)
	copy(word, "hello")
	data = append(data, word...)

	got, err := newABIReader(data).stringAt(0)
	if err != nil {
		t.Fatalf("stringAt() err = %v", err)
	}
	if got != "hello" {
		t.Errorf("stringAt() = %q, want %q", got, "hello")
	}
}

func TestParseSchemeCreatedSurvivesHostileLength(t *testing.T) {
	l := schemeCreatedLog(t, 7, "x", big.NewInt(1), "0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	// Corrupt the name length word (slot 3 of the data payload).
	for i := 3 * wordSize; i < 4*wordSize; i++ {
		l.Data[i] = 0xff
	}
	if _, ok := ParseSchemeCreated(l); ok {
		t.Fatal("ParseSchemeCreated() decoded a log with a hostile length word")
	}
}
