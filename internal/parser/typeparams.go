package parser

import (
	"fmt"
	"strings"

	"dexsync/internal/model"
)

// defaultTokenDecimals applies until coin metadata is fetched from chain.
const defaultTokenDecimals = 9

// TokensFromPoolType derives the two pool tokens from a Move pool type such
// as "0x1eab...::pool::Pool<0xdba...::usdc::USDC, 0xbde...::hasui::HASUI>".
func TokensFromPoolType(typeName string) (model.TokenInfo, model.TokenInfo, error) {
	open := strings.Index(typeName, "<")
	if open < 0 {
		return model.TokenInfo{}, model.TokenInfo{}, &ParseError{Reason: "no type parameters found: " + typeName}
	}
	end := strings.LastIndex(typeName, ">")
	if end < open {
		return model.TokenInfo{}, model.TokenInfo{}, &ParseError{Reason: "unclosed type parameters: " + typeName}
	}
	return TokensFromTypeParams(typeName[open+1 : end])
}

// TokensFromTypeParams parses a comma-separated coin type list. Exactly two
// parameters are required.
func TokensFromTypeParams(params string) (model.TokenInfo, model.TokenInfo, error) {
	tags := splitTypeParams(params)
	if len(tags) != 2 {
		return model.TokenInfo{}, model.TokenInfo{}, &ParseError{
			Reason: fmt.Sprintf("expected 2 type parameters, found %d: %s", len(tags), params),
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

// TokenFromTypeTag parses one "0xADDRESS::module::NAME" coin tag. The full
// tag is kept as the token address since that is the coin's on-chain
// identity.
func TokenFromTypeTag(tag string) (model.TokenInfo, error) {
	tag = strings.TrimSpace(tag)
	parts := strings.Split(tag, "::")
	if len(parts) != 3 {
		return model.TokenInfo{}, &ParseError{Reason: "invalid coin type format: " + tag}
	}
	address := strings.TrimSpace(parts[0])
	module := strings.TrimSpace(parts[1])
	name := strings.TrimSpace(parts[2])
	if !strings.HasPrefix(address, "0x") {
		return model.TokenInfo{}, &ParseError{Reason: "coin address must start with 0x: " + tag}
	}
	if module == "" || name == "" {
		return model.TokenInfo{}, &ParseError{Reason: "invalid coin type format: " + tag}
	}
	return model.TokenInfo{
		Symbol:   name,
		Address:  address + "::" + module + "::" + name,
		Decimals: defaultTokenDecimals,
		Name:     module + "::" + name,
	}, nil
}

// splitTypeParams splits on commas at the top nesting level only, so a
// nested generic parameter stays whole.
func splitTypeParams(s string) []string {
	parts := make([]string, 0, 2)
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	last := strings.TrimSpace(s[start:])
	if last != "" || len(parts) > 0 {
		parts = append(parts, last)
	}
	return parts
}
