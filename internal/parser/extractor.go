package parser

import (
	"encoding/json"
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"dexsync/internal/model"
)

var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// FieldExtractor reads unsigned integers out of a raw object's content
// fields. Lookups are strict: missing fields, wrong types, and overflow are
// distinct errors, never silent defaults. Each value may arrive as a native
// JSON number or as a decimal string.
type FieldExtractor struct {
	obj model.ObjectData
}

// NewFieldExtractor validates that the object carries parsed Move content.
func NewFieldExtractor(obj model.ObjectData) (*FieldExtractor, error) {
	if obj.Content == nil {
		return nil, &ParseError{ObjectID: obj.ObjectID, Reason: "missing content"}
	}
	if obj.Content.DataType != model.MoveObjectDataType {
		return nil, &ParseError{ObjectID: obj.ObjectID, Reason: "not a move object: " + obj.Content.DataType}
	}
	return &FieldExtractor{obj: obj}, nil
}

// Uint64 reads a u64 field.
func (x *FieldExtractor) Uint64(name string) (uint64, error) {
	digits, err := x.digits(name)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, x.fieldError(name, ErrFieldOverflow)
		}
		return 0, x.fieldError(name, ErrFieldType)
	}
	return value, nil
}

// Uint128 reads a u128 field into a big integer.
func (x *FieldExtractor) Uint128(name string) (*big.Int, error) {
	digits, err := x.digits(name)
	if err != nil {
		return nil, err
	}
	value, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, x.fieldError(name, ErrFieldType)
	}
	if value.Cmp(maxUint128) > 0 {
		return nil, x.fieldError(name, ErrFieldOverflow)
	}
	return value, nil
}

// DecimalFromUint64 reads a u64 field as a decimal.
func (x *FieldExtractor) DecimalFromUint64(name string) (decimal.Decimal, error) {
	value, err := x.Uint64(name)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(new(big.Int).SetUint64(value), 0), nil
}

// DecimalFromUint128 reads a u128 field as a decimal.
func (x *FieldExtractor) DecimalFromUint128(name string) (decimal.Decimal, error) {
	value, err := x.Uint128(name)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(value, 0), nil
}

// HasTypeSignature reports whether the object's type string carries the
// structural signature.
func HasTypeSignature(obj model.ObjectData, signature string) bool {
	return strings.Contains(obj.TypeName(), signature)
}

// digits returns the field's unsigned integer text.
func (x *FieldExtractor) digits(name string) (string, error) {
	raw, ok := x.obj.Field(name)
	if !ok {
		return "", x.fieldError(name, ErrFieldMissing)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return "", x.fieldError(name, ErrFieldMissing)
	}
	if text[0] == '"' {
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return "", x.fieldError(name, ErrFieldType)
		}
		if !isDigits(value) {
			return "", x.fieldError(name, ErrFieldType)
		}
		return value, nil
	}
	if !isDigits(text) {
		return "", x.fieldError(name, ErrFieldType)
	}
	return text, nil
}

func (x *FieldExtractor) fieldError(name string, kind error) error {
	return &ParseError{ObjectID: x.obj.ObjectID, Field: name, Err: kind}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
