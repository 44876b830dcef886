// Package uimanager defines the UI-operation policy of a bridge instance and
// exposes it to scripts as the "bridge:UIManager" native module.
package uimanager

import (
	"github.com/joeycumines/uibridge/internal/shadow"
	"go.uber.org/zap"
)

// Implementation performs structural UI operations for one bridge instance.
type Implementation interface {
	CreateView(tag int, typeID string, rootTag int, props map[string]any) error
	SetChildren(tag int, childTags []int) error
	ManageChildren(tag int, op shadow.ManageChildrenOp) error
	RegisterRoot(rootTag int) error
	RemoveRoot(rootTag int)

	Node(tag int) (shadow.Node, bool)
	Roots() []int
	Dump(rootTag int) string
}

// Provider creates the Implementation used by a bridge instance. It is the
// policy injection point of the host: package assembly never depends on it.
type Provider interface {
	CreateImplementation(log *zap.Logger) Implementation
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(log *zap.Logger) Implementation

func (f ProviderFunc) CreateImplementation(log *zap.Logger) Implementation { return f(log) }

// SynchronizedProvider wraps every mutation in a shadow.Gateway's single
// mutual exclusion domain. It is the default provider.
type SynchronizedProvider struct{}

func (SynchronizedProvider) CreateImplementation(log *zap.Logger) Implementation {
	return shadow.NewGateway(shadow.WithLogger(log))
}

// UnsynchronizedProvider applies mutations directly to a shadow.Tree. Use it
// only when a single goroutine issues every UI operation.
type UnsynchronizedProvider struct{}

func (UnsynchronizedProvider) CreateImplementation(*zap.Logger) Implementation {
	return shadow.NewTree()
}

var (
	_ Implementation = (*shadow.Gateway)(nil)
	_ Implementation = (*shadow.Tree)(nil)
)
