package packages

import (
	"maps"
	"slices"

	"github.com/dop251/goja_nodejs/require"
)

// ModuleRegistryAdapter contributes an externally maintained set of module
// loaders as one package. Modules are registered in name order.
type ModuleRegistryAdapter struct {
	name    string
	modules map[string]require.ModuleLoader
}

var _ Package = (*ModuleRegistryAdapter)(nil)

// NewModuleRegistryAdapter wraps modules under the given package name.
func NewModuleRegistryAdapter(name string, modules map[string]require.ModuleLoader) *ModuleRegistryAdapter {
	return &ModuleRegistryAdapter{name: name, modules: maps.Clone(modules)}
}

func (a *ModuleRegistryAdapter) Name() string { return a.name }

func (*ModuleRegistryAdapter) Kind() Kind { return KindExtension }

func (*ModuleRegistryAdapter) Capabilities() Capability { return ProvidesNativeModules }

func (*ModuleRegistryAdapter) UIHandlers() []UIHandler { return nil }

func (a *ModuleRegistryAdapter) NativeModules(Context) []NativeModule {
	out := make([]NativeModule, 0, len(a.modules))
	for _, name := range slices.Sorted(maps.Keys(a.modules)) {
		out = append(out, NativeModule{Name: name, Loader: a.modules[name]})
	}
	return out
}
