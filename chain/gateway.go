package chain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agrichain/subsidy_backend/config"
	"github.com/sirupsen/logrus"
)

// Function and event signatures of the subsidy program.
const (
	sigGetFarmer     = "getFarmer(address)"
	sigGetScheme     = "getScheme(uint256)"
	sigGetStatistics = "getStatistics()"

	sigFarmerRegistered = "FarmerRegistered(address,string,string)"
	sigSchemeCreated    = "SchemeCreated(uint256,string,uint256,address)"
)

type rpcGateway struct {
	client  *rpcClient
	program string
	log     *logrus.Logger
}

// NewGateway builds the JSON-RPC ledger gateway. Pure I/O: it never touches
// local state.
func NewGateway(cfg config.ChainConfig, log *logrus.Logger) Gateway {
	return &rpcGateway{
		client:  newRPCClient(cfg),
		program: NormalizeAddress(cfg.ProgramAddress),
		log:     log,
	}
}

type wireLog struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

type wireReceipt struct {
	TransactionHash string    `json:"transactionHash"`
	Status          string    `json:"status"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	BlockNumber     string    `json:"blockNumber"`
	Logs            []wireLog `json:"logs"`
}

func (g *rpcGateway) FetchOutcome(ctx context.Context, txHash string) (*Receipt, error) {
	raw, err := g.client.call(ctx, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var wr wireReceipt
	if err := json.Unmarshal(raw, &wr); err != nil {
		return nil, fmt.Errorf("decode receipt: %w", err)
	}

	status, err := hexToUint64(wr.Status)
	if err != nil {
		return nil, fmt.Errorf("decode receipt status: %w", err)
	}
	blockNumber, err := hexToUint64(wr.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("decode receipt block number: %w", err)
	}

	receipt := &Receipt{
		TxHash:      wr.TransactionHash,
		Status:      status,
		From:        NormalizeAddress(wr.From),
		To:          NormalizeAddress(wr.To),
		BlockNumber: blockNumber,
	}
	for _, l := range wr.Logs {
		data, err := hexToBytes(l.Data)
		if err != nil {
			return nil, fmt.Errorf("decode log data: %w", err)
		}
		receipt.Logs = append(receipt.Logs, Log{
			Address: NormalizeAddress(l.Address),
			Topics:  l.Topics,
			Data:    data,
		})
	}
	return receipt, nil
}

// ethCall runs a read-only call against the program and returns decoded bytes.
func (g *rpcGateway) ethCall(ctx context.Context, calldata string) ([]byte, error) {
	raw, err := g.client.call(ctx, "eth_call", map[string]string{
		"to":   g.program,
		"data": calldata,
	}, "latest")
	if err != nil {
		return nil, err
	}
	var hexResult string
	if err := json.Unmarshal(raw, &hexResult); err != nil {
		return nil, fmt.Errorf("decode call result: %w", err)
	}
	data, err := hexToBytes(hexResult)
	if err != nil {
		return nil, fmt.Errorf("decode call result: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty call result from program %s", g.program)
	}
	return data, nil
}

func (g *rpcGateway) Farmer(ctx context.Context, address string) (*FarmerState, error) {
	arg, err := addressWord(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	data, err := g.ethCall(ctx, encodeCall(sigGetFarmer, arg))
	if err != nil {
		return nil, err
	}

	// Single dynamic tuple return: the first word points at the struct.
	tr, err := newABIReader(data).tupleAt(0)
	if err != nil {
		return nil, fmt.Errorf("decode farmer: %w", err)
	}
	state := &FarmerState{}
	if state.Name, err = tr.stringAt(0); err != nil {
		return nil, fmt.Errorf("decode farmer: %w", err)
	}
	if state.Location, err = tr.stringAt(1); err != nil {
		return nil, fmt.Errorf("decode farmer: %w", err)
	}
	if state.CropType, err = tr.stringAt(2); err != nil {
		return nil, fmt.Errorf("decode farmer: %w", err)
	}
	if state.FarmSize, err = tr.int64At(3); err != nil {
		return nil, fmt.Errorf("decode farmer: %w", err)
	}
	if state.Verified, err = tr.boolAt(4); err != nil {
		return nil, fmt.Errorf("decode farmer: %w", err)
	}
	if state.Active, err = tr.boolAt(5); err != nil {
		return nil, fmt.Errorf("decode farmer: %w", err)
	}
	if state.RegisteredAt, err = tr.int64At(6); err != nil {
		return nil, fmt.Errorf("decode farmer: %w", err)
	}
	total, err := tr.bigAt(7)
	if err != nil {
		return nil, fmt.Errorf("decode farmer: %w", err)
	}
	state.TotalReceived = weiToDecimal(total)
	return state, nil
}

func (g *rpcGateway) Scheme(ctx context.Context, id int64) (*SchemeState, error) {
	data, err := g.ethCall(ctx, encodeCall(sigGetScheme, uintWord(id)))
	if err != nil {
		return nil, err
	}

	tr, err := newABIReader(data).tupleAt(0)
	if err != nil {
		return nil, fmt.Errorf("decode scheme: %w", err)
	}
	state := &SchemeState{}
	if state.Name, err = tr.stringAt(0); err != nil {
		return nil, fmt.Errorf("decode scheme: %w", err)
	}
	if state.Description, err = tr.stringAt(1); err != nil {
		return nil, fmt.Errorf("decode scheme: %w", err)
	}
	amount, err := tr.bigAt(2)
	if err != nil {
		return nil, fmt.Errorf("decode scheme: %w", err)
	}
	state.Amount = weiToDecimal(amount)
	if state.MaxBeneficiaries, err = tr.int64At(3); err != nil {
		return nil, fmt.Errorf("decode scheme: %w", err)
	}
	if state.CurrentBeneficiaries, err = tr.int64At(4); err != nil {
		return nil, fmt.Errorf("decode scheme: %w", err)
	}
	if state.Active, err = tr.boolAt(5); err != nil {
		return nil, fmt.Errorf("decode scheme: %w", err)
	}
	if state.Creator, err = tr.addressAt(6); err != nil {
		return nil, fmt.Errorf("decode scheme: %w", err)
	}
	if state.CreatedAt, err = tr.int64At(7); err != nil {
		return nil, fmt.Errorf("decode scheme: %w", err)
	}
	if state.ExpiryDate, err = tr.int64At(8); err != nil {
		return nil, fmt.Errorf("decode scheme: %w", err)
	}
	return state, nil
}

func (g *rpcGateway) Statistics(ctx context.Context) (*Statistics, error) {
	data, err := g.ethCall(ctx, encodeCall(sigGetStatistics))
	if err != nil {
		return nil, err
	}

	// Five static return values, no tuple indirection.
	r := newABIReader(data)
	stats := &Statistics{}
	if stats.TotalFarmers, err = r.int64At(0); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	if stats.TotalSchemes, err = r.int64At(1); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	if stats.TotalPayments, err = r.int64At(2); err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	distributed, err := r.bigAt(3)
	if err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	stats.TotalDistributed = weiToDecimal(distributed)
	balance, err := r.bigAt(4)
	if err != nil {
		return nil, fmt.Errorf("decode statistics: %w", err)
	}
	stats.ContractBalance = weiToDecimal(balance)
	return stats, nil
}

type wireEventLog struct {
	wireLog
	TransactionHash string `json:"transactionHash"`
	BlockNumber     string `json:"blockNumber"`
}

func (g *rpcGateway) FarmerRegisteredEvents(ctx context.Context, fromBlock, toBlock uint64) ([]RegisteredEvent, error) {
	raw, err := g.client.call(ctx, "eth_getLogs", map[string]any{
		"address":   g.program,
		"topics":    []string{eventTopic(sigFarmerRegistered)},
		"fromBlock": uint64ToHex(fromBlock),
		"toBlock":   uint64ToHex(toBlock),
	})
	if err != nil {
		return nil, err
	}

	var logs []wireEventLog
	if err := json.Unmarshal(raw, &logs); err != nil {
		return nil, fmt.Errorf("decode event logs: %w", err)
	}

	events := make([]RegisteredEvent, 0, len(logs))
	for _, l := range logs {
		if len(l.Topics) < 2 {
			continue
		}
		farmer, err := addressFromTopic(l.Topics[1])
		if err != nil {
			g.log.WithField("topic", l.Topics[1]).Warn("skipping event with malformed farmer topic")
			continue
		}
		data, err := hexToBytes(l.Data)
		if err != nil {
			g.log.WithField("tx", l.TransactionHash).Warn("skipping event with malformed data")
			continue
		}
		blockNumber, _ := hexToUint64(l.BlockNumber)

		ev := RegisteredEvent{
			Farmer:      farmer,
			TxHash:      l.TransactionHash,
			BlockNumber: blockNumber,
		}
		// Non-indexed payload: (string name, string location).
		r := newABIReader(data)
		if ev.Name, err = r.stringAt(0); err != nil {
			g.log.WithField("tx", l.TransactionHash).Warn("skipping event with undecodable name")
			continue
		}
		if ev.Location, err = r.stringAt(1); err != nil {
			g.log.WithField("tx", l.TransactionHash).Warn("skipping event with undecodable location")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (g *rpcGateway) BlockNumber(ctx context.Context) (uint64, error) {
	raw, err := g.client.call(ctx, "eth_blockNumber")
	if err != nil {
		return 0, err
	}
	var hexResult string
	if err := json.Unmarshal(raw, &hexResult); err != nil {
		return 0, fmt.Errorf("decode block number: %w", err)
	}
	return hexToUint64(hexResult)
}
