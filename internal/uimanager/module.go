package uimanager

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"github.com/joeycumines/uibridge/internal/shadow"
)

// ModuleName is the require() name of the UI manager module.
const ModuleName = "bridge:UIManager"

// Require returns the loader for the UI manager module. The API:
//
//	createView(tag, type, rootTag, props?)
//	setChildren(tag, childTags)
//	manageChildren(tag, moveFrom, moveTo, addChildTags, addAtIndices, removeFrom)
//	registerRoot(tag)
//	removeRoot(tag)
//	getNode(tag): {tag, type, rootTag, parent, children, props, isRoot} | null
//	roots(): number[]
//	dump(rootTag): string
//
// Array arguments of manageChildren may be null or undefined. Structural
// failures are thrown as JavaScript errors wrapping the Go error.
func Require(impl Implementation) require.ModuleLoader {
	return func(runtime *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)

		throw := func(err error) {
			if err != nil {
				panic(runtime.NewGoError(err))
			}
		}
		tags := func(name string, v goja.Value) []int {
			if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
				return nil
			}
			var out []int
			if err := runtime.ExportTo(v, &out); err != nil {
				panic(runtime.NewTypeError(fmt.Sprintf("%s must be an array of tags", name)))
			}
			return out
		}
		tag := func(v goja.Value) int {
			return int(v.ToInteger())
		}

		_ = exports.Set("createView", func(call goja.FunctionCall) goja.Value {
			var props map[string]any
			if p := call.Argument(3); !goja.IsUndefined(p) && !goja.IsNull(p) {
				m, ok := p.Export().(map[string]any)
				if !ok {
					panic(runtime.NewTypeError("createView props must be an object"))
				}
				props = m
			}
			throw(impl.CreateView(tag(call.Argument(0)), call.Argument(1).String(), tag(call.Argument(2)), props))
			return goja.Undefined()
		})

		_ = exports.Set("setChildren", func(call goja.FunctionCall) goja.Value {
			throw(impl.SetChildren(tag(call.Argument(0)), tags("childTags", call.Argument(1))))
			return goja.Undefined()
		})

		_ = exports.Set("manageChildren", func(call goja.FunctionCall) goja.Value {
			throw(impl.ManageChildren(tag(call.Argument(0)), shadow.ManageChildrenOp{
				MoveFrom:     tags("moveFrom", call.Argument(1)),
				MoveTo:       tags("moveTo", call.Argument(2)),
				AddChildTags: tags("addChildTags", call.Argument(3)),
				AddAtIndices: tags("addAtIndices", call.Argument(4)),
				RemoveFrom:   tags("removeFrom", call.Argument(5)),
			}))
			return goja.Undefined()
		})

		_ = exports.Set("registerRoot", func(call goja.FunctionCall) goja.Value {
			throw(impl.RegisterRoot(tag(call.Argument(0))))
			return goja.Undefined()
		})

		_ = exports.Set("removeRoot", func(call goja.FunctionCall) goja.Value {
			impl.RemoveRoot(tag(call.Argument(0)))
			return goja.Undefined()
		})

		_ = exports.Set("getNode", func(call goja.FunctionCall) goja.Value {
			n, ok := impl.Node(tag(call.Argument(0)))
			if !ok {
				return goja.Null()
			}
			obj := runtime.NewObject()
			_ = obj.Set("tag", n.Tag)
			_ = obj.Set("type", n.TypeID)
			_ = obj.Set("rootTag", n.RootTag)
			_ = obj.Set("parent", n.Parent)
			_ = obj.Set("children", intsToJS(runtime, n.Children))
			if n.Props != nil {
				_ = obj.Set("props", n.Props)
			} else {
				_ = obj.Set("props", goja.Null())
			}
			_ = obj.Set("isRoot", n.IsRoot)
			return obj
		})

		_ = exports.Set("roots", func(goja.FunctionCall) goja.Value {
			return intsToJS(runtime, impl.Roots())
		})

		_ = exports.Set("dump", func(call goja.FunctionCall) goja.Value {
			return runtime.ToValue(impl.Dump(tag(call.Argument(0))))
		})
	}
}

func intsToJS(runtime *goja.Runtime, v []int) goja.Value {
	items := make([]any, len(v))
	for i, n := range v {
		items[i] = n
	}
	return runtime.NewArray(items...)
}
