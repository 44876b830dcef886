package shadow

import (
	"sync"

	"go.uber.org/zap"
)

// Gateway serializes every structural operation on one Tree through a
// single mutex. Each operation holds the mutex for its whole duration and
// releases it on every exit path, including a panic inside the tree. No I/O
// happens while the mutex is held; rejected operations are logged after it
// is released.
//
// Operations are applied in the order their goroutines acquire the mutex.
// sync.Mutex makes no FIFO promise, so neither does Gateway.
type Gateway struct {
	mu   sync.Mutex
	tree *Tree
	log  *zap.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used to report rejected operations.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGateway returns a gateway owning a new, empty tree.
func NewGateway(opts ...Option) *Gateway {
	g := &Gateway{
		tree: NewTree(),
		log:  Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) locked(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}

func (g *Gateway) report(op string, tag int, err error) error {
	if err != nil {
		g.log.Debug("shadow mutation rejected",
			zap.String("op", op),
			zap.Int("tag", tag),
			zap.Error(err),
		)
	}
	return err
}

// CreateView registers a new node. It fails with *DuplicateTagError if tag
// is already registered, leaving the existing node untouched.
func (g *Gateway) CreateView(tag int, typeID string, rootTag int, props map[string]any) error {
	err := g.locked(func() error {
		return g.tree.CreateView(tag, typeID, rootTag, props)
	})
	return g.report("createView", tag, err)
}

// SetChildren replaces the child list of tag. It fails with
// *UnknownNodeError if tag is not registered.
func (g *Gateway) SetChildren(tag int, childTags []int) error {
	err := g.locked(func() error {
		return g.tree.SetChildren(tag, childTags)
	})
	return g.report("setChildren", tag, err)
}

// ManageChildren applies removals, moves and inserts on tag's children as
// one atomic step. See Tree.ManageChildren.
func (g *Gateway) ManageChildren(tag int, op ManageChildrenOp) error {
	err := g.locked(func() error {
		return g.tree.ManageChildren(tag, op)
	})
	return g.report("manageChildren", tag, err)
}

// RegisterRoot marks rootTag as a mounted root.
func (g *Gateway) RegisterRoot(rootTag int) error {
	err := g.locked(func() error {
		return g.tree.RegisterRoot(rootTag)
	})
	return g.report("registerRoot", rootTag, err)
}

// RemoveRoot tears down rootTag and its descendants. It is idempotent.
func (g *Gateway) RemoveRoot(rootTag int) {
	_ = g.locked(func() error {
		g.tree.RemoveRoot(rootTag)
		return nil
	})
}

// Node returns a copy of the node registered under tag.
func (g *Gateway) Node(tag int) (n Node, ok bool) {
	_ = g.locked(func() error {
		n, ok = g.tree.Node(tag)
		return nil
	})
	return n, ok
}

// Len returns the number of registered nodes.
func (g *Gateway) Len() (n int) {
	_ = g.locked(func() error {
		n = g.tree.Len()
		return nil
	})
	return n
}

// Tags returns every registered tag in ascending order.
func (g *Gateway) Tags() (tags []int) {
	_ = g.locked(func() error {
		tags = g.tree.Tags()
		return nil
	})
	return tags
}

// Roots returns every registered root tag in ascending order.
func (g *Gateway) Roots() (roots []int) {
	_ = g.locked(func() error {
		roots = g.tree.Roots()
		return nil
	})
	return roots
}

// Snapshot returns copies of every registered node.
func (g *Gateway) Snapshot() (nodes map[int]Node) {
	_ = g.locked(func() error {
		nodes = g.tree.Snapshot()
		return nil
	})
	return nodes
}

// Dump renders the subtree under rootTag.
func (g *Gateway) Dump(rootTag int) (s string) {
	_ = g.locked(func() error {
		s = g.tree.Dump(rootTag)
		return nil
	})
	return s
}
