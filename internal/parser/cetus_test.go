package parser

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexsync/internal/model"
)

// cetusPoolJSON is a USDC/haSUI pool object as returned by a mainnet
// fullnode with showType and showContent enabled.
const cetusPoolJSON = `{
  "objectId": "0x7d44018f10fea0f7ea7b7bb9e1718cf0e6b6ce24f10da8965db2bcf0ff890764",
  "version": "433362298",
  "digest": "8qZCqnuH5kLMDCqrvVdHJwCPbnzua5jbhYqaFXbVcTAK",
  "type": "0x1eabed72c53feb3805120a081dc15963c204dc8d091542592abaf7a35689b2fb::pool::Pool<0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC, 0xbde4ba4c2e274a60ce15c1cfff9e5c42e41654ac8b6d906a57efa4bd3c29f47d::hasui::HASUI>",
  "content": {
    "dataType": "moveObject",
    "type": "0x1eabed72c53feb3805120a081dc15963c204dc8d091542592abaf7a35689b2fb::pool::Pool<0xdba34672e30cb065b1f93e3ab55318768fd6fef66c15942c9f7cb846e2f900e7::usdc::USDC, 0xbde4ba4c2e274a60ce15c1cfff9e5c42e41654ac8b6d906a57efa4bd3c29f47d::hasui::HASUI>",
    "fields": {
      "coin_a": "5041265070",
      "coin_b": "3143745307052",
      "liquidity": "125087290394",
      "fee_rate": "2500",
      "is_pause": false
    }
  }
}`

func decodeCetusPool(t *testing.T) model.ObjectData {
	t.Helper()
	var obj model.ObjectData
	require.NoError(t, json.Unmarshal([]byte(cetusPoolJSON), &obj))
	return obj
}

func TestCetusPoolParser(t *testing.T) {
	obj := decodeCetusPool(t)
	fetchedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	p := NewCetusPoolParser()
	p.now = func() time.Time { return fetchedAt }

	require.True(t, p.CanParse(obj))

	state, err := p.Parse(obj)
	require.NoError(t, err)

	assert.Equal(t, model.DexCetus, state.DexID)
	assert.Equal(t, model.ChainSui, state.PoolID.Chain)
	assert.Equal(t, "0x7d44018f10fea0f7ea7b7bb9e1718cf0e6b6ce24f10da8965db2bcf0ff890764", state.PoolID.Value)
	assert.Equal(t, "5041265070", state.ReserveA.String())
	assert.Equal(t, "3143745307052", state.ReserveB.String())
	assert.Equal(t, "125087290394", state.Liquidity.String())
	assert.Equal(t, "2500", state.FeeRate.String())
	assert.Equal(t, "USDC", state.TokenA.Symbol)
	assert.Equal(t, "HASUI", state.TokenB.Symbol)
	assert.Contains(t, state.TokenA.Address, "usdc")
	assert.Contains(t, state.TokenB.Address, "hasui")
	assert.Equal(t, fetchedAt, state.BlockTimestamp)

	require.NoError(t, state.Validate())
}

func TestCetusPoolParserRejectsOtherObjects(t *testing.T) {
	obj := decodeCetusPool(t)
	obj.Type = "0x2::coin::Coin<0x2::sui::SUI>"
	obj.Content.Type = obj.Type

	p := NewCetusPoolParser()
	assert.False(t, p.CanParse(obj))
}

func TestCetusPoolParserMissingField(t *testing.T) {
	obj := decodeCetusPool(t)
	delete(obj.Content.Fields, "liquidity")

	_, err := NewCetusPoolParser().Parse(obj)
	require.ErrorIs(t, err, ErrFieldMissing)
	assert.Contains(t, err.Error(), "liquidity")
}

func TestCetusPoolParserGarbledReserve(t *testing.T) {
	obj := decodeCetusPool(t)
	obj.Content.Fields["coin_a"] = json.RawMessage(`"not-a-number"`)

	_, err := NewCetusPoolParser().Parse(obj)
	require.ErrorIs(t, err, ErrFieldType)
}
