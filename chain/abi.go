package chain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"
)

// Minimal ABI codec for the handful of fixed shapes the subsidy program
// exposes. Word layout only; no generic type parser.

const wordSize = 32

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// selector returns the 4-byte call selector for a function signature like
// "getFarmer(address)".
func selector(signature string) []byte {
	return keccak256([]byte(signature))[:4]
}

// eventTopic returns the topic0 hash for an event signature like
// "SchemeCreated(uint256,string,uint256,address)".
func eventTopic(signature string) string {
	return "0x" + hex.EncodeToString(keccak256([]byte(signature)))
}

func hexToBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

func hexToUint64(s string) (uint64, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return 0, nil
	}
	n := new(big.Int)
	if _, ok := n.SetString(s, 16); !ok {
		return 0, fmt.Errorf("malformed hex quantity %q", s)
	}
	return n.Uint64(), nil
}

func uint64ToHex(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}

// padWord left-pads b into one 32-byte ABI word.
func padWord(b []byte) []byte {
	word := make([]byte, wordSize)
	copy(word[wordSize-len(b):], b)
	return word
}

// encodeCall builds calldata: selector followed by 32-byte words.
func encodeCall(signature string, words ...[]byte) string {
	data := selector(signature)
	for _, w := range words {
		data = append(data, padWord(w)...)
	}
	return "0x" + hex.EncodeToString(data)
}

func addressWord(address string) ([]byte, error) {
	b, err := hexToBytes(address)
	if err != nil || len(b) != 20 {
		return nil, fmt.Errorf("bad address %q", address)
	}
	return b, nil
}

func uintWord(n int64) []byte {
	return big.NewInt(n).Bytes()
}

// addressFromTopic recovers a 20-byte address from a 32-byte indexed topic.
func addressFromTopic(topic string) (string, error) {
	b, err := hexToBytes(topic)
	if err != nil || len(b) != wordSize {
		return "", fmt.Errorf("bad topic %q", topic)
	}
	return "0x" + hex.EncodeToString(b[12:]), nil
}

func uintFromTopic(topic string) (int64, error) {
	b, err := hexToBytes(topic)
	if err != nil || len(b) != wordSize {
		return 0, fmt.Errorf("bad topic %q", topic)
	}
	return new(big.Int).SetBytes(b).Int64(), nil
}

// weiToDecimal converts a base-unit amount to whole token units.
func weiToDecimal(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -18)
}

// abiReader walks the 32-byte words of encoded return data or event data.
// base anchors dynamic offsets, which are relative to the enclosing tuple.
type abiReader struct {
	data []byte
	base int
}

func newABIReader(data []byte) *abiReader {
	return &abiReader{data: data}
}

func (r *abiReader) word(i int) ([]byte, error) {
	start := r.base + i*wordSize
	if start+wordSize > len(r.data) {
		return nil, fmt.Errorf("abi: word %d out of range (len=%d base=%d)", i, len(r.data), r.base)
	}
	return r.data[start : start+wordSize], nil
}

func (r *abiReader) bigAt(i int) (*big.Int, error) {
	w, err := r.word(i)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(w), nil
}

func (r *abiReader) int64At(i int) (int64, error) {
	n, err := r.bigAt(i)
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}

func (r *abiReader) boolAt(i int) (bool, error) {
	n, err := r.bigAt(i)
	if err != nil {
		return false, err
	}
	return n.Sign() != 0, nil
}

func (r *abiReader) addressAt(i int) (string, error) {
	w, err := r.word(i)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(w[12:]), nil
}

// offsetAt reads the dynamic offset at slot i and bounds it against the
// payload. Offsets and lengths arrive from the remote node, so a value that
// does not fit the payload is treated as malformed, never trusted into a
// slice expression.
func (r *abiReader) offsetAt(i int) (int, error) {
	off, err := r.bigAt(i)
	if err != nil {
		return 0, err
	}
	if !off.IsInt64() || off.Int64() < 0 || off.Int64() > int64(len(r.data)) {
		return 0, fmt.Errorf("abi: offset %s out of range (len=%d)", off, len(r.data))
	}
	return r.base + int(off.Int64()), nil
}

// tupleAt follows the offset word at slot i into a nested dynamic tuple.
func (r *abiReader) tupleAt(i int) (*abiReader, error) {
	base, err := r.offsetAt(i)
	if err != nil {
		return nil, err
	}
	if base >= len(r.data) {
		return nil, fmt.Errorf("abi: tuple offset %d out of range", base)
	}
	return &abiReader{data: r.data, base: base}, nil
}

// stringAt follows the offset word at slot i to a dynamic string.
func (r *abiReader) stringAt(i int) (string, error) {
	start, err := r.offsetAt(i)
	if err != nil {
		return "", err
	}
	if start+wordSize > len(r.data) {
		return "", fmt.Errorf("abi: string offset %d out of range", start)
	}
	n := new(big.Int).SetBytes(r.data[start : start+wordSize])
	start += wordSize
	if !n.IsInt64() || n.Int64() < 0 || n.Int64() > int64(len(r.data)-start) {
		return "", fmt.Errorf("abi: string length %s out of range (len=%d)", n, len(r.data))
	}
	length := int(n.Int64())
	return string(r.data[start : start+length]), nil
}
