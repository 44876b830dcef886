package shadow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTreeWithChildren registers a root (1), a parent view (2) under it, and
// the given children under the parent.
func newTreeWithChildren(t *testing.T, children ...int) *Tree {
	t.Helper()
	tree := NewTree()
	require.NoError(t, tree.RegisterRoot(1))
	require.NoError(t, tree.CreateView(2, "View", 1, nil))
	require.NoError(t, tree.SetChildren(1, []int{2}))
	for _, c := range children {
		require.NoError(t, tree.CreateView(c, "View", 1, nil))
	}
	require.NoError(t, tree.SetChildren(2, children))
	return tree
}

func children(t *testing.T, tree *Tree, tag int) []int {
	t.Helper()
	n, ok := tree.Node(tag)
	require.True(t, ok, "tag %d should be registered", tag)
	return n.Children
}

func TestTree_CreateView_Distinct(t *testing.T) {
	t.Parallel()
	tree := NewTree()
	for tag := 10; tag < 20; tag++ {
		require.NoError(t, tree.CreateView(tag, "View", 1, map[string]any{"n": tag}))
	}
	assert.Equal(t, 10, tree.Len())
	assert.Equal(t, []int{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}, tree.Tags())
}

func TestTree_CreateView_Duplicate(t *testing.T) {
	t.Parallel()
	tree := NewTree()
	require.NoError(t, tree.CreateView(5, "Text", 1, map[string]any{"text": "first"}))

	err := tree.CreateView(5, "Image", 1, map[string]any{"text": "second"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateTag))
	var dup *DuplicateTagError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 5, dup.Tag)

	assert.Equal(t, 1, tree.Len())
	n, ok := tree.Node(5)
	require.True(t, ok)
	assert.Equal(t, "Text", n.TypeID)
	assert.Equal(t, "first", n.Props["text"])
}

func TestTree_CreateView_InvalidTag(t *testing.T) {
	t.Parallel()
	tree := NewTree()
	err := tree.CreateView(0, "View", 1, nil)
	require.ErrorIs(t, err, ErrInvalidArguments)
	assert.Zero(t, tree.Len())
}

func TestTree_CreateView_CopiesProps(t *testing.T) {
	t.Parallel()
	tree := NewTree()
	props := map[string]any{"color": "red"}
	require.NoError(t, tree.CreateView(3, "View", 1, props))
	props["color"] = "blue"

	n, _ := tree.Node(3)
	assert.Equal(t, "red", n.Props["color"])
	n.Props["color"] = "green"
	n2, _ := tree.Node(3)
	assert.Equal(t, "red", n2.Props["color"])
}

func TestTree_SetChildren(t *testing.T) {
	t.Parallel()

	t.Run("unknown node", func(t *testing.T) {
		t.Parallel()
		tree := NewTree()
		err := tree.SetChildren(42, []int{1})
		require.ErrorIs(t, err, ErrUnknownNode)
		var unknown *UnknownNodeError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, 42, unknown.Tag)
	})

	t.Run("placeholder children accepted", func(t *testing.T) {
		t.Parallel()
		tree := newTreeWithChildren(t)
		require.NoError(t, tree.SetChildren(2, []int{100, 101}))
		assert.Equal(t, []int{100, 101}, children(t, tree, 2))
		_, ok := tree.Node(100)
		assert.False(t, ok)
	})

	t.Run("parent links follow replacement", func(t *testing.T) {
		t.Parallel()
		tree := newTreeWithChildren(t, 3, 4)
		n3, _ := tree.Node(3)
		assert.Equal(t, 2, n3.Parent)

		require.NoError(t, tree.SetChildren(2, []int{4}))
		n3, _ = tree.Node(3)
		n4, _ := tree.Node(4)
		assert.Zero(t, n3.Parent)
		assert.Equal(t, 2, n4.Parent)
	})
}

func TestTree_ManageChildren(t *testing.T) {
	t.Parallel()

	const a, b, c, d = 3, 4, 5, 6

	cases := []struct {
		name    string
		initial []int
		op      ManageChildrenOp
		want    []int
	}{
		{
			name:    "remove then add at same index",
			initial: []int{a, b},
			op:      ManageChildrenOp{RemoveFrom: []int{0}, AddChildTags: []int{9}, AddAtIndices: []int{0}},
			want:    []int{9, b},
		},
		{
			name:    "append",
			initial: []int{a, b},
			op:      ManageChildrenOp{AddChildTags: []int{9}, AddAtIndices: []int{2}},
			want:    []int{a, b, 9},
		},
		{
			name:    "adds applied in ascending index order",
			initial: []int{a, b},
			op:      ManageChildrenOp{AddChildTags: []int{8, 7}, AddAtIndices: []int{2, 0}},
			want:    []int{7, a, 8, b},
		},
		{
			name:    "swap via moves against snapshot",
			initial: []int{a, b, c},
			op:      ManageChildrenOp{MoveFrom: []int{0, 2}, MoveTo: []int{2, 0}},
			want:    []int{c, b, a},
		},
		{
			name:    "move to front",
			initial: []int{a, b, c, d},
			op:      ManageChildrenOp{MoveFrom: []int{3}, MoveTo: []int{0}},
			want:    []int{d, a, b, c},
		},
		{
			name:    "remove several",
			initial: []int{a, b, c, d},
			op:      ManageChildrenOp{RemoveFrom: []int{3, 1}},
			want:    []int{a, c},
		},
		{
			name:    "remove move and add together",
			initial: []int{a, b, c},
			op: ManageChildrenOp{
				RemoveFrom:   []int{1},
				MoveFrom:     []int{0},
				MoveTo:       []int{1},
				AddChildTags: []int{9},
				AddAtIndices: []int{0},
			},
			want: []int{9, a, c},
		},
		{
			name:    "empty op",
			initial: []int{a, b},
			op:      ManageChildrenOp{},
			want:    []int{a, b},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tree := newTreeWithChildren(t, tc.initial...)
			require.NoError(t, tree.ManageChildren(2, tc.op))
			assert.Equal(t, tc.want, children(t, tree, 2))
		})
	}
}

func TestTree_ManageChildren_Rejected(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		tag     int
		op      ManageChildrenOp
		wantErr error
	}{
		{name: "unknown tag", tag: 77, op: ManageChildrenOp{}, wantErr: ErrUnknownNode},
		{name: "remove past end", tag: 2, op: ManageChildrenOp{RemoveFrom: []int{2}}, wantErr: ErrIndexOutOfRange},
		{name: "negative remove", tag: 2, op: ManageChildrenOp{RemoveFrom: []int{-1}}, wantErr: ErrIndexOutOfRange},
		{name: "move from past end", tag: 2, op: ManageChildrenOp{MoveFrom: []int{5}, MoveTo: []int{0}}, wantErr: ErrIndexOutOfRange},
		{name: "move to past count", tag: 2, op: ManageChildrenOp{MoveFrom: []int{0}, MoveTo: []int{3}}, wantErr: ErrIndexOutOfRange},
		{name: "add past count", tag: 2, op: ManageChildrenOp{AddChildTags: []int{9}, AddAtIndices: []int{3}}, wantErr: ErrIndexOutOfRange},
		{name: "unpaired moves", tag: 2, op: ManageChildrenOp{MoveFrom: []int{0}}, wantErr: ErrInvalidArguments},
		{name: "unpaired adds", tag: 2, op: ManageChildrenOp{AddChildTags: []int{9, 10}, AddAtIndices: []int{0}}, wantErr: ErrInvalidArguments},
		{name: "index removed and moved", tag: 2, op: ManageChildrenOp{RemoveFrom: []int{0}, MoveFrom: []int{0}, MoveTo: []int{1}}, wantErr: ErrInvalidArguments},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			tree := newTreeWithChildren(t, 3, 4)
			before := tree.Snapshot()

			err := tree.ManageChildren(tc.tag, tc.op)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, before, tree.Snapshot(), "tree must be unchanged after a rejected operation")
		})
	}
}

func TestTree_ManageChildren_ParentLinks(t *testing.T) {
	t.Parallel()
	tree := newTreeWithChildren(t, 3, 4)
	require.NoError(t, tree.CreateView(9, "View", 1, nil))

	require.NoError(t, tree.ManageChildren(2, ManageChildrenOp{
		RemoveFrom:   []int{0},
		AddChildTags: []int{9},
		AddAtIndices: []int{0},
	}))

	n3, _ := tree.Node(3)
	n9, _ := tree.Node(9)
	assert.Zero(t, n3.Parent, "removed child is detached")
	assert.Equal(t, 2, n9.Parent)
}

func TestTree_PlaceholderParent(t *testing.T) {
	t.Parallel()

	t.Run("set children before create", func(t *testing.T) {
		t.Parallel()
		tree := newTreeWithChildren(t)
		require.NoError(t, tree.SetChildren(2, []int{100}))
		require.NoError(t, tree.CreateView(100, "View", 1, nil))
		n, _ := tree.Node(100)
		assert.Equal(t, 2, n.Parent)
	})

	t.Run("manage children before create", func(t *testing.T) {
		t.Parallel()
		tree := newTreeWithChildren(t, 3)
		require.NoError(t, tree.ManageChildren(2, ManageChildrenOp{AddChildTags: []int{100}, AddAtIndices: []int{1}}))
		require.NoError(t, tree.CreateView(100, "View", 1, nil))
		n, _ := tree.Node(100)
		assert.Equal(t, 2, n.Parent)
	})

	t.Run("unlisted before create", func(t *testing.T) {
		t.Parallel()
		tree := newTreeWithChildren(t)
		require.NoError(t, tree.SetChildren(2, []int{100}))
		require.NoError(t, tree.SetChildren(2, nil))
		require.NoError(t, tree.CreateView(100, "View", 1, nil))
		n, _ := tree.Node(100)
		assert.Zero(t, n.Parent)
	})

	t.Run("removed before create", func(t *testing.T) {
		t.Parallel()
		tree := newTreeWithChildren(t)
		require.NoError(t, tree.SetChildren(2, []int{100}))
		require.NoError(t, tree.ManageChildren(2, ManageChildrenOp{RemoveFrom: []int{0}}))
		require.NoError(t, tree.CreateView(100, "View", 1, nil))
		n, _ := tree.Node(100)
		assert.Zero(t, n.Parent)
	})

	t.Run("teardown scrubs listing in another root", func(t *testing.T) {
		t.Parallel()
		tree := NewTree()
		require.NoError(t, tree.RegisterRoot(1))
		require.NoError(t, tree.RegisterRoot(50))
		require.NoError(t, tree.CreateView(51, "View", 50, nil))
		require.NoError(t, tree.SetChildren(51, []int{7}))
		require.NoError(t, tree.CreateView(7, "View", 1, nil))

		tree.RemoveRoot(1)
		_, ok := tree.Node(7)
		assert.False(t, ok)
		assert.Empty(t, children(t, tree, 51))
	})

	t.Run("teardown drops placeholders of removed parents", func(t *testing.T) {
		t.Parallel()
		tree := newTreeWithChildren(t)
		require.NoError(t, tree.SetChildren(2, []int{100}))
		tree.RemoveRoot(1)

		require.NoError(t, tree.RegisterRoot(50))
		require.NoError(t, tree.CreateView(100, "View", 50, nil))
		n, _ := tree.Node(100)
		assert.Zero(t, n.Parent)
	})
}

func TestTree_Reparent(t *testing.T) {
	t.Parallel()

	t.Run("set children moves a live child", func(t *testing.T) {
		t.Parallel()
		tree := newTreeWithChildren(t, 3, 4)
		require.NoError(t, tree.CreateView(10, "View", 1, nil))
		require.NoError(t, tree.SetChildren(10, []int{3}))

		assert.Equal(t, []int{4}, children(t, tree, 2))
		assert.Equal(t, []int{3}, children(t, tree, 10))
		n3, _ := tree.Node(3)
		assert.Equal(t, 10, n3.Parent)
	})

	t.Run("manage children moves a live child", func(t *testing.T) {
		t.Parallel()
		tree := newTreeWithChildren(t, 3, 4)
		require.NoError(t, tree.CreateView(10, "View", 1, nil))
		require.NoError(t, tree.ManageChildren(10, ManageChildrenOp{AddChildTags: []int{4}, AddAtIndices: []int{0}}))

		assert.Equal(t, []int{3}, children(t, tree, 2))
		assert.Equal(t, []int{4}, children(t, tree, 10))
	})

	t.Run("placeholder moves between parents", func(t *testing.T) {
		t.Parallel()
		tree := newTreeWithChildren(t)
		require.NoError(t, tree.CreateView(10, "View", 1, nil))
		require.NoError(t, tree.SetChildren(2, []int{100}))
		require.NoError(t, tree.SetChildren(10, []int{100}))
		require.NoError(t, tree.CreateView(100, "View", 1, nil))

		assert.Empty(t, children(t, tree, 2))
		n, _ := tree.Node(100)
		assert.Equal(t, 10, n.Parent)
	})
}

func TestTree_Roots(t *testing.T) {
	t.Parallel()

	t.Run("register is idempotent", func(t *testing.T) {
		t.Parallel()
		tree := NewTree()
		require.NoError(t, tree.RegisterRoot(1))
		require.NoError(t, tree.RegisterRoot(1))
		assert.Equal(t, []int{1}, tree.Roots())
		n, ok := tree.Node(1)
		require.True(t, ok)
		assert.True(t, n.IsRoot)
		assert.Equal(t, RootTypeID, n.TypeID)
		assert.Zero(t, n.Parent)
	})

	t.Run("register over plain view", func(t *testing.T) {
		t.Parallel()
		tree := NewTree()
		require.NoError(t, tree.CreateView(1, "View", 1, nil))
		require.ErrorIs(t, tree.RegisterRoot(1), ErrDuplicateTag)
		assert.Empty(t, tree.Roots())
	})

	t.Run("remove cascades and is idempotent", func(t *testing.T) {
		t.Parallel()
		tree := newTreeWithChildren(t, 3, 4)
		require.NoError(t, tree.CreateView(5, "Text", 1, nil))
		require.NoError(t, tree.SetChildren(3, []int{5}))
		require.NoError(t, tree.RegisterRoot(50))
		require.NoError(t, tree.CreateView(51, "View", 50, nil))

		tree.RemoveRoot(1)
		assert.Equal(t, []int{50, 51}, tree.Tags())
		assert.Equal(t, []int{50}, tree.Roots())

		tree.RemoveRoot(1)
		assert.Equal(t, []int{50, 51}, tree.Tags())
	})

	t.Run("remove includes unattached members", func(t *testing.T) {
		t.Parallel()
		tree := NewTree()
		require.NoError(t, tree.RegisterRoot(1))
		require.NoError(t, tree.CreateView(7, "View", 1, nil))
		tree.RemoveRoot(1)
		assert.Zero(t, tree.Len())
	})

	t.Run("register takes a listed placeholder out of its parent", func(t *testing.T) {
		t.Parallel()
		tree := newTreeWithChildren(t, 3)
		require.NoError(t, tree.SetChildren(2, []int{3, 60}))
		require.NoError(t, tree.RegisterRoot(60))

		assert.Equal(t, []int{3}, children(t, tree, 2))
		n, _ := tree.Node(60)
		assert.Zero(t, n.Parent)
	})

	t.Run("remove unknown root", func(t *testing.T) {
		t.Parallel()
		tree := NewTree()
		require.NoError(t, tree.CreateView(7, "View", 1, nil))
		tree.RemoveRoot(1)
		assert.Equal(t, 1, tree.Len())
	})
}

func TestTree_Dump(t *testing.T) {
	t.Parallel()
	tree := newTreeWithChildren(t, 3)
	require.NoError(t, tree.SetChildren(2, []int{3, 99}))

	want := "RootView #1\n" +
		"  View #2\n" +
		"    View #3\n" +
		"    <pending 99>\n"
	assert.Equal(t, want, tree.Dump(1))
}
