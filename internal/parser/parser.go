package parser

import (
	"fmt"

	"go.uber.org/zap"

	"dexsync/internal/model"
)

// PoolParser decodes raw on-chain objects for one DEX protocol.
type PoolParser interface {
	// DexID names the protocol this parser handles.
	DexID() model.DexID
	// CanParse tests the object's structural signature.
	CanParse(obj model.ObjectData) bool
	// Parse decodes the object into canonical pool state.
	Parse(obj model.ObjectData) (model.PoolState, error)
}

// Registry dispatches raw objects to the first parser whose protocol and
// structural signature both match.
type Registry struct {
	parsers []PoolParser
	logger  *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger}
}

// DefaultRegistry returns a registry loaded with the standard parser set.
func DefaultRegistry(logger *zap.Logger) *Registry {
	registry := NewRegistry(logger)
	registry.Register(NewCetusPoolParser())
	registry.Register(NewTurbosPoolParser())
	return registry
}

// Register appends a parser. Order is the tie-break when two parsers cover
// the same protocol and signature.
func (r *Registry) Register(p PoolParser) {
	r.parsers = append(r.parsers, p)
}

// Parse decodes obj with the first parser declared for dexID that accepts
// the object.
func (r *Registry) Parse(obj model.ObjectData, dexID model.DexID) (model.PoolState, error) {
	for _, p := range r.parsers {
		if p.DexID() != dexID || !p.CanParse(obj) {
			continue
		}
		return p.Parse(obj)
	}
	return model.PoolState{}, fmt.Errorf("%w for dex %s and object type %q", ErrNoParser, dexID, obj.TypeName())
}

// ParseBatch decodes objects independently, best-effort: one object's
// failure is logged and the object dropped, so the result may be smaller
// than the input.
func (r *Registry) ParseBatch(objects []model.ObjectData, dexID model.DexID) []model.PoolState {
	states := make([]model.PoolState, 0, len(objects))
	for _, obj := range objects {
		state, err := r.Parse(obj, dexID)
		if err != nil {
			r.logger.Warn("dropping unparseable object",
				zap.String("object_id", obj.ObjectID),
				zap.String("dex", dexID.Name()),
				zap.Error(err))
			continue
		}
		states = append(states, state)
	}
	return states
}
