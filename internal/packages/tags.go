package packages

import (
	"sync/atomic"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
)

// TagModuleName is the require() name of the tag allocator module.
const TagModuleName = "bridge:nextTag"

// TagAllocator hands out view tags for one bridge instance. It is safe for
// concurrent use.
type TagAllocator struct {
	last atomic.Int64
}

// Next returns a fresh tag.
func (a *TagAllocator) Next() int {
	return int(a.last.Add(1))
}

// Reserve makes every later Next return a tag greater than tag.
func (a *TagAllocator) Reserve(tag int) {
	for {
		cur := a.last.Load()
		if int64(tag) <= cur || a.last.CompareAndSwap(cur, int64(tag)) {
			return
		}
	}
}

// requireTags exports nextTag(held?: Array<{tag?: number}>): number. Tags
// listed in held are reserved first, so the result never collides with a
// tag the script already holds.
func requireTags(tags *TagAllocator) require.ModuleLoader {
	return func(runtime *goja.Runtime, module *goja.Object) {
		_ = module.Set("exports", func(call goja.FunctionCall) goja.Value {
			if held := call.Argument(0); !goja.IsUndefined(held) && !goja.IsNull(held) {
				var items []goja.Value
				if err := runtime.ExportTo(held, &items); err != nil {
					panic(runtime.NewTypeError("nextTag expects an array of views"))
				}
				for _, item := range items {
					if item == nil || goja.IsUndefined(item) || goja.IsNull(item) {
						continue
					}
					if v := item.ToObject(runtime).Get("tag"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
						tags.Reserve(int(v.ToInteger()))
					}
				}
			}
			return runtime.ToValue(tags.Next())
		})
	}
}
