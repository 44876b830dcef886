// Package packages defines the pluggable units a bridge instance is
// assembled from, and the packages the host always knows about.
//
// A Package contributes native modules (registered on the instance's
// require.Registry) and UI handlers (the view types it can create). The
// host identifies packages by Kind and Capabilities, resolved once at
// assembly time.
package packages

import (
	"context"

	"github.com/dop251/goja_nodejs/require"
	"github.com/joeycumines/uibridge/internal/uimanager"
	"go.uber.org/zap"
)

// Kind tags the role of a package in assembly.
type Kind int

const (
	// KindExtension is any caller-supplied package with no special role.
	KindExtension Kind = iota
	// KindDefaultUI is the host's own UI integration package. At most one
	// instance of it is ever assembled.
	KindDefaultUI
	// KindCoreRuntime is the package providing the core runtime modules.
	KindCoreRuntime
)

func (k Kind) String() string {
	switch k {
	case KindDefaultUI:
		return "default-ui"
	case KindCoreRuntime:
		return "core-runtime"
	default:
		return "extension"
	}
}

// Capability is a set of flags describing what a package provides.
type Capability uint

const (
	// ProvidesCoreRuntime marks a package that registers the UI manager and
	// the other modules every bundle depends on.
	ProvidesCoreRuntime Capability = 1 << iota
	// ProvidesNativeModules marks a package contributing native modules.
	ProvidesNativeModules
	// ProvidesUIHandlers marks a package contributing UI handlers.
	ProvidesUIHandlers
)

// Has reports whether c includes every flag in flag.
func (c Capability) Has(flag Capability) bool { return c&flag == flag }

// Context is what a package sees when it contributes native modules to one
// bridge instance.
type Context struct {
	Ctx   context.Context
	Debug bool
	UI    uimanager.Implementation
	Tags  *TagAllocator
	Log   *zap.Logger
}

// NativeModule is a named require() module.
type NativeModule struct {
	Name   string
	Loader require.ModuleLoader
}

// UIHandler describes a view type a package can create.
type UIHandler struct {
	TypeID      string
	Description string
}

// Package is one pluggable unit of a bridge instance.
type Package interface {
	Name() string
	Kind() Kind
	Capabilities() Capability
	NativeModules(pc Context) []NativeModule
	UIHandlers() []UIHandler
}

// FuncPackage builds a Package from plain values. Modules may be nil.
type FuncPackage struct {
	PackageName string
	PackageKind Kind
	Caps        Capability
	Modules     func(pc Context) []NativeModule
	Handlers    []UIHandler
}

var _ Package = (*FuncPackage)(nil)

func (p *FuncPackage) Name() string             { return p.PackageName }
func (p *FuncPackage) Kind() Kind               { return p.PackageKind }
func (p *FuncPackage) Capabilities() Capability { return p.Caps }
func (p *FuncPackage) UIHandlers() []UIHandler  { return p.Handlers }

func (p *FuncPackage) NativeModules(pc Context) []NativeModule {
	if p.Modules == nil {
		return nil
	}
	return p.Modules(pc)
}
