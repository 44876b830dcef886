package packages

import (
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"github.com/joeycumines/uibridge/internal/uimanager"
)

// NavigationModuleName is the require() name of the navigation module.
const NavigationModuleName = "bridge:Navigation"

// NavigationPackage is the host's default UI integration package. Its
// module mounts screens as roots: setRoot registers the new root and tears
// down the previous one.
type NavigationPackage struct {
	mu      sync.Mutex
	current int
}

var _ Package = (*NavigationPackage)(nil)

// NewNavigationPackage returns a navigation package with no root mounted.
func NewNavigationPackage() *NavigationPackage { return &NavigationPackage{} }

func (*NavigationPackage) Name() string { return "navigation" }

func (*NavigationPackage) Kind() Kind { return KindDefaultUI }

func (*NavigationPackage) Capabilities() Capability { return ProvidesNativeModules }

func (*NavigationPackage) UIHandlers() []UIHandler { return nil }

func (p *NavigationPackage) NativeModules(pc Context) []NativeModule {
	return []NativeModule{{Name: NavigationModuleName, Loader: p.require(pc.UI)}}
}

// CurrentRoot returns the tag of the mounted root, or 0.
func (p *NavigationPackage) CurrentRoot() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// SetRoot mounts tag as the current root and removes the previous one.
func (p *NavigationPackage) SetRoot(ui uimanager.Implementation, tag int) error {
	if err := ui.RegisterRoot(tag); err != nil {
		return err
	}
	p.mu.Lock()
	prev := p.current
	p.current = tag
	p.mu.Unlock()
	if prev != 0 && prev != tag {
		ui.RemoveRoot(prev)
	}
	return nil
}

// Reset forgets the mounted root without touching the tree.
func (p *NavigationPackage) Reset() {
	p.mu.Lock()
	p.current = 0
	p.mu.Unlock()
}

func (p *NavigationPackage) require(ui uimanager.Implementation) require.ModuleLoader {
	return func(runtime *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)

		_ = exports.Set("setRoot", func(call goja.FunctionCall) goja.Value {
			if err := p.SetRoot(ui, int(call.Argument(0).ToInteger())); err != nil {
				panic(runtime.NewGoError(err))
			}
			return goja.Undefined()
		})

		_ = exports.Set("currentRoot", func(goja.FunctionCall) goja.Value {
			return runtime.ToValue(p.CurrentRoot())
		})
	}
}
