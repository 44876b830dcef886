package packages

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"github.com/joeycumines/uibridge/internal/uimanager"
)

// DevSettingsModuleName is the require() name of the dev settings module.
const DevSettingsModuleName = "bridge:DevSettings"

// CorePackage provides the modules every bundle depends on: the UI
// manager, the tag allocator and dev settings.
type CorePackage struct{}

var _ Package = (*CorePackage)(nil)

// NewCorePackage returns the core runtime package.
func NewCorePackage() *CorePackage { return &CorePackage{} }

func (*CorePackage) Name() string { return "core" }

func (*CorePackage) Kind() Kind { return KindCoreRuntime }

func (*CorePackage) Capabilities() Capability {
	return ProvidesCoreRuntime | ProvidesNativeModules | ProvidesUIHandlers
}

func (*CorePackage) NativeModules(pc Context) []NativeModule {
	tags := pc.Tags
	if tags == nil {
		tags = new(TagAllocator)
	}
	return []NativeModule{
		{Name: uimanager.ModuleName, Loader: uimanager.Require(pc.UI)},
		{Name: TagModuleName, Loader: requireTags(tags)},
		{Name: DevSettingsModuleName, Loader: requireDevSettings(pc.Debug)},
	}
}

func (*CorePackage) UIHandlers() []UIHandler {
	return []UIHandler{
		{TypeID: "RootView", Description: "top-level mounted view"},
		{TypeID: "View", Description: "container"},
		{TypeID: "Text", Description: "text run"},
		{TypeID: "Image", Description: "bitmap"},
	}
}

func requireDevSettings(debug bool) require.ModuleLoader {
	return func(runtime *goja.Runtime, module *goja.Object) {
		exports := module.Get("exports").(*goja.Object)
		_ = exports.Set("isDebug", func() bool { return debug })
	}
}
