package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"dexsync/internal/model"
)

func testStates(t *testing.T) []model.PoolState {
	t.Helper()
	first, err := model.NewSuiAddress("0xa1")
	if err != nil {
		t.Fatalf("NewSuiAddress: %v", err)
	}
	second, err := model.NewSuiAddress("0xa2")
	if err != nil {
		t.Fatalf("NewSuiAddress: %v", err)
	}

	base := model.PoolState{
		DexID:          model.DexCetus,
		TokenA:         model.TokenInfo{Symbol: "SUI", Address: "0x2::sui::SUI", Decimals: 9},
		TokenB:         model.TokenInfo{Symbol: "USDC", Address: "0xdba::usdc::USDC", Decimals: 6},
		ReserveA:       decimal.NewFromInt(2_000_000_000),
		ReserveB:       decimal.NewFromInt(8_000_000),
		Liquidity:      decimal.NewFromInt(126_491_106),
		FeeRate:        decimal.NewFromInt(2500),
		BlockTimestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	a := base
	a.PoolID = first
	b := base
	b.PoolID = second
	return []model.PoolState{a, b}
}

func TestJsonlSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "states.jsonl")
	sink := NewJsonlSink(path)

	states := testStates(t)
	if err := sink.PutPoolStates(context.Background(), states); err != nil {
		t.Fatalf("PutPoolStates: %v", err)
	}
	if err := sink.PutPoolStates(context.Background(), states[:1]); err != nil {
		t.Fatalf("PutPoolStates append: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer file.Close()

	var decoded []model.PoolState
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var state model.PoolState
		if err := json.Unmarshal(scanner.Bytes(), &state); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		decoded = append(decoded, state)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan output: %v", err)
	}

	if len(decoded) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(decoded))
	}
	if decoded[0].PoolID != states[0].PoolID {
		t.Fatalf("pool id mismatch: %s vs %s", decoded[0].PoolID, states[0].PoolID)
	}
	if decoded[1].ReserveB.String() != "8000000" {
		t.Fatalf("reserve mismatch: %s", decoded[1].ReserveB)
	}
}

func TestJsonlSinkEmptyBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "states.jsonl")
	sink := NewJsonlSink(path)

	if err := sink.PutPoolStates(context.Background(), nil); err != nil {
		t.Fatalf("PutPoolStates: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("empty batch should not create the file")
	}
}

func TestSnapshotFileSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap", "snapshot.json")
	states := testStates(t)

	snapshot := model.StateSnapshot{
		Pools:     map[model.PoolID]model.PoolState{states[0].PoolID: states[0]},
		Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Sequence:  7,
		DexCount:  1,
		PoolCount: 1,
	}

	file := &SnapshotFile{Path: path}
	if err := file.Save(snapshot); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if string(decoded["sequence"]) != "7" {
		t.Fatalf("sequence mismatch: %s", decoded["sequence"])
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file should be renamed away")
	}
}
