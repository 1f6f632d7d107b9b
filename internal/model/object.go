package model

import "encoding/json"

// MoveObjectDataType marks parsed Move-object content.
const MoveObjectDataType = "moveObject"

// ObjectContent is the parsed payload of an on-chain object.
type ObjectContent struct {
	DataType string                     `json:"dataType"`
	Type     string                     `json:"type"`
	Fields   map[string]json.RawMessage `json:"fields"`
}

// ObjectData mirrors the object shape a Sui fullnode returns when showType
// and showContent are requested.
type ObjectData struct {
	ObjectID string         `json:"objectId"`
	Version  string         `json:"version"`
	Digest   string         `json:"digest"`
	Type     string         `json:"type"`
	Content  *ObjectContent `json:"content"`
}

// TypeName returns the most specific type string available.
func (o ObjectData) TypeName() string {
	if o.Content != nil && o.Content.Type != "" {
		return o.Content.Type
	}
	return o.Type
}

// Field returns a named content field in raw form.
func (o ObjectData) Field(name string) (json.RawMessage, bool) {
	if o.Content == nil {
		return nil, false
	}
	raw, ok := o.Content.Fields[name]
	return raw, ok
}
