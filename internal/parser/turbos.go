package parser

import (
	"fmt"
	"strings"
	"time"

	"dexsync/internal/model"
)

// turbosPoolSignature matches the Turbos CLMM pool object type
// <package>::pool::Pool<CoinA, CoinB, Fee>. Registry dispatch keys on the
// declared DEX as well, so the shared "::pool::Pool<" shape with Cetus is
// not ambiguous.
const turbosPoolSignature = "::pool::Pool<"

// TurbosPoolParser decodes Turbos concentrated-liquidity pool objects.
type TurbosPoolParser struct {
	now func() time.Time
}

func NewTurbosPoolParser() *TurbosPoolParser {
	return &TurbosPoolParser{now: time.Now}
}

func (p *TurbosPoolParser) DexID() model.DexID { return model.DexTurbos }

func (p *TurbosPoolParser) CanParse(obj model.ObjectData) bool {
	return HasTypeSignature(obj, turbosPoolSignature)
}

func (p *TurbosPoolParser) Parse(obj model.ObjectData) (model.PoolState, error) {
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
	feeRate, err := ex.DecimalFromUint64("fee")
	if err != nil {
		return model.PoolState{}, err
	}

	tokenA, tokenB, err := turbosTokens(obj.TypeName())
	if err != nil {
		return model.PoolState{}, err
	}

	return model.PoolState{
		DexID:          model.DexTurbos,
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

// turbosTokens reads the coin pair from the pool type. Turbos pools carry a
// third type parameter naming the fee tier witness, which is not a coin and
// is ignored.
func turbosTokens(typeName string) (model.TokenInfo, model.TokenInfo, error) {
	open := strings.Index(typeName, "<")
	if open < 0 {
		return model.TokenInfo{}, model.TokenInfo{}, &ParseError{Reason: "no type parameters found: " + typeName}
	}
	end := strings.LastIndex(typeName, ">")
	if end < open {
		return model.TokenInfo{}, model.TokenInfo{}, &ParseError{Reason: "unclosed type parameters: " + typeName}
	}
	tags := splitTypeParams(typeName[open+1 : end])
	if len(tags) != 2 && len(tags) != 3 {
		return model.TokenInfo{}, model.TokenInfo{}, &ParseError{
			Reason: fmt.Sprintf("expected 2 or 3 type parameters, found %d: %s", len(tags), typeName),
		}
	}
	tokenA, err := TokenFromTypeTag(tags[0])
	if err != nil {
		return model.TokenInfo{}, model.TokenInfo{}, err
	}
	tokenB, err := TokenFromTypeTag(tags[1])
	if err != nil {
		return model.TokenInfo{}, model.TokenInfo{}, err
	}
	return tokenA, tokenB, nil
}
