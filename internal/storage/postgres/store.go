package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"dexsync/internal/model"
)

// Store provides Postgres persistence for pool states.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the pool_states table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pool_states (
			pool_id TEXT PRIMARY KEY,
			dex_id TEXT NOT NULL,
			token_a JSONB NOT NULL,
			token_b JSONB NOT NULL,
			reserve_a NUMERIC NOT NULL,
			reserve_b NUMERIC NOT NULL,
			liquidity NUMERIC NOT NULL,
			fee_rate NUMERIC NOT NULL,
			block_timestamp TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create pool_states table: %w", err)
	}
	return nil
}

// PutPoolStates inserts or updates pool states keyed by pool id.
func (s *Store) PutPoolStates(ctx context.Context, states []model.PoolState) error {
	if len(states) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, state := range states {
		tokenA, err := json.Marshal(state.TokenA)
		if err != nil {
			return fmt.Errorf("marshal token a: %w", err)
		}
		tokenB, err := json.Marshal(state.TokenB)
		if err != nil {
			return fmt.Errorf("marshal token b: %w", err)
		}
		batch.Queue(`
			INSERT INTO pool_states (
				pool_id, dex_id, token_a, token_b, reserve_a, reserve_b, liquidity, fee_rate, block_timestamp, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
			ON CONFLICT (pool_id)
			DO UPDATE SET
				dex_id = EXCLUDED.dex_id,
				token_a = EXCLUDED.token_a,
				token_b = EXCLUDED.token_b,
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				liquidity = EXCLUDED.liquidity,
				fee_rate = EXCLUDED.fee_rate,
				block_timestamp = EXCLUDED.block_timestamp,
				updated_at = now()
		`,
			state.PoolID.String(),
			state.DexID.Name(),
			tokenA,
			tokenB,
			state.ReserveA.String(),
			state.ReserveB.String(),
			state.Liquidity.String(),
			state.FeeRate.String(),
			state.BlockTimestamp,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range states {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PoolStates loads every persisted pool state, most recently updated first.
func (s *Store) PoolStates(ctx context.Context) ([]model.PoolState, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pool_id, dex_id, token_a, token_b, reserve_a::text, reserve_b::text, liquidity::text, fee_rate::text, block_timestamp
		FROM pool_states
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []model.PoolState
	for rows.Next() {
		var (
			state              model.PoolState
			poolID, dexID      string
			tokenA, tokenB     []byte
			reserveA, reserveB string
			liquidity, feeRate string
		)
		if err := rows.Scan(&poolID, &dexID, &tokenA, &tokenB, &reserveA, &reserveB, &liquidity, &feeRate, &state.BlockTimestamp); err != nil {
			return nil, err
		}

		state.PoolID, err = model.ParseChainAddress(poolID)
		if err != nil {
			return nil, fmt.Errorf("pool id %q: %w", poolID, err)
		}
		state.DexID, err = model.ParseDexID(dexID)
		if err != nil {
			return nil, fmt.Errorf("dex id %q: %w", dexID, err)
		}
		if err := json.Unmarshal(tokenA, &state.TokenA); err != nil {
			return nil, fmt.Errorf("token a for %s: %w", poolID, err)
		}
		if err := json.Unmarshal(tokenB, &state.TokenB); err != nil {
			return nil, fmt.Errorf("token b for %s: %w", poolID, err)
		}
		if state.ReserveA, err = decimal.NewFromString(reserveA); err != nil {
			return nil, fmt.Errorf("reserve a for %s: %w", poolID, err)
		}
		if state.ReserveB, err = decimal.NewFromString(reserveB); err != nil {
			return nil, fmt.Errorf("reserve b for %s: %w", poolID, err)
		}
		if state.Liquidity, err = decimal.NewFromString(liquidity); err != nil {
			return nil, fmt.Errorf("liquidity for %s: %w", poolID, err)
		}
		if state.FeeRate, err = decimal.NewFromString(feeRate); err != nil {
			return nil, fmt.Errorf("fee rate for %s: %w", poolID, err)
		}

		states = append(states, state)
	}
	return states, rows.Err()
}
