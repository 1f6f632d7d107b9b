package parser

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexsync/internal/model"
)

func testObject(fields map[string]any) model.ObjectData {
	raw := make(map[string]json.RawMessage, len(fields))
	for name, value := range fields {
		encoded, err := json.Marshal(value)
		if err != nil {
			panic(err)
		}
		raw[name] = encoded
	}
	return model.ObjectData{
		ObjectID: "0x2",
		Content: &model.ObjectContent{
			DataType: model.MoveObjectDataType,
			Type:     "0x2::pool::Pool<0xa::a::A, 0xb::b::B>",
			Fields:   raw,
		},
	}
}

func TestNewFieldExtractor(t *testing.T) {
	t.Run("RejectsMissingContent", func(t *testing.T) {
		_, err := NewFieldExtractor(model.ObjectData{ObjectID: "0x2"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing content")
	})

	t.Run("RejectsNonMoveObject", func(t *testing.T) {
		obj := testObject(nil)
		obj.Content.DataType = "package"
		_, err := NewFieldExtractor(obj)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a move object")
	})
}

func TestFieldExtractorUint64(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]any
		want    uint64
		wantErr error
	}{
		{name: "StringDigits", fields: map[string]any{"fee_rate": "2500"}, want: 2500},
		{name: "NativeNumber", fields: map[string]any{"fee_rate": 2500}, want: 2500},
		{name: "MaxUint64", fields: map[string]any{"fee_rate": "18446744073709551615"}, want: 18446744073709551615},
		{name: "Missing", fields: map[string]any{}, wantErr: ErrFieldMissing},
		{name: "Null", fields: map[string]any{"fee_rate": nil}, wantErr: ErrFieldMissing},
		{name: "Bool", fields: map[string]any{"fee_rate": true}, wantErr: ErrFieldType},
		{name: "Float", fields: map[string]any{"fee_rate": "25.5"}, wantErr: ErrFieldType},
		{name: "Negative", fields: map[string]any{"fee_rate": "-1"}, wantErr: ErrFieldType},
		{name: "Overflow", fields: map[string]any{"fee_rate": "18446744073709551625"}, wantErr: ErrFieldOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := NewFieldExtractor(testObject(tt.fields))
			require.NoError(t, err)

			got, err := ex.Uint64("fee_rate")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldExtractorUint128(t *testing.T) {
	t.Run("BeyondUint64", func(t *testing.T) {
		ex, err := NewFieldExtractor(testObject(map[string]any{"liquidity": "340282366920938463463374607431768211455"}))
		require.NoError(t, err)

		value, err := ex.Uint128("liquidity")
		require.NoError(t, err)
		assert.Equal(t, "340282366920938463463374607431768211455", value.String())
	})

	t.Run("Overflow", func(t *testing.T) {
		ex, err := NewFieldExtractor(testObject(map[string]any{"liquidity": "340282366920938463463374607431768211456"}))
		require.NoError(t, err)

		_, err = ex.Uint128("liquidity")
		require.ErrorIs(t, err, ErrFieldOverflow)
	})

	t.Run("AsDecimal", func(t *testing.T) {
		ex, err := NewFieldExtractor(testObject(map[string]any{"liquidity": "125087290394"}))
		require.NoError(t, err)

		value, err := ex.DecimalFromUint128("liquidity")
		require.NoError(t, err)
		assert.Equal(t, "125087290394", value.String())
	})
}

func TestFieldErrorDetail(t *testing.T) {
	ex, err := NewFieldExtractor(testObject(nil))
	require.NoError(t, err)

	_, err = ex.Uint64("coin_a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0x2")
	assert.Contains(t, err.Error(), "coin_a")
}

func TestHasTypeSignature(t *testing.T) {
	obj := testObject(nil)
	assert.True(t, HasTypeSignature(obj, "::pool::Pool<"))
	assert.False(t, HasTypeSignature(obj, "::factory::Factory<"))
}
