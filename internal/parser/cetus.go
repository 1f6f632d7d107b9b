package parser

import (
	"time"

	"dexsync/internal/model"
)

// cetusPoolSignature matches the concrete pool object type
// <package>::pool::Pool<CoinA, CoinB> published by the Cetus CLMM package.
const cetusPoolSignature = "::pool::Pool<"

// CetusPoolParser decodes Cetus concentrated-liquidity pool objects.
type CetusPoolParser struct {
	now func() time.Time
}

func NewCetusPoolParser() *CetusPoolParser {
	return &CetusPoolParser{now: time.Now}
}

func (p *CetusPoolParser) DexID() model.DexID { return model.DexCetus }

func (p *CetusPoolParser) CanParse(obj model.ObjectData) bool {
	return HasTypeSignature(obj, cetusPoolSignature)
}

func (p *CetusPoolParser) Parse(obj model.ObjectData) (model.PoolState, error) {
	ex, err := NewFieldExtractor(obj)
	if err != nil {
		return model.PoolState{}, err
	}

	poolID, err := model.NewSuiAddress(obj.ObjectID)
	if err != nil {
		return model.PoolState{}, &ParseError{ObjectID: obj.ObjectID, Reason: "invalid pool object id", Err: err}
	}

	reserveA, err := ex.DecimalFromUint128("coin_a")
	if err != nil {
		return model.PoolState{}, err
	}
	reserveB, err := ex.DecimalFromUint128("coin_b")
	if err != nil {
		return model.PoolState{}, err
	}
	liquidity, err := ex.DecimalFromUint128("liquidity")
	if err != nil {
		return model.PoolState{}, err
	}
	feeRate, err := ex.DecimalFromUint64("fee_rate")
	if err != nil {
		return model.PoolState{}, err
	}

	tokenA, tokenB, err := TokensFromPoolType(obj.TypeName())
	if err != nil {
		return model.PoolState{}, err
	}

	return model.PoolState{
		DexID:          model.DexCetus,
		PoolID:         poolID,
		TokenA:         tokenA,
		TokenB:         tokenB,
		ReserveA:       reserveA,
		ReserveB:       reserveB,
		Liquidity:      liquidity,
		FeeRate:        feeRate,
		BlockTimestamp: p.now().UTC(),
	}, nil
}
