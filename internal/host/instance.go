package host

import (
	"context"
	"fmt"
	"io/fs"
	"slices"

	"github.com/dop251/goja"
	"github.com/joeycumines/uibridge/internal/bundle"
	"github.com/joeycumines/uibridge/internal/devsupport"
	"github.com/joeycumines/uibridge/internal/packages"
	"github.com/joeycumines/uibridge/internal/scripting"
	"github.com/joeycumines/uibridge/internal/uimanager"
	"go.uber.org/zap"
)

// Instance is a built bridge: a running scripting runtime with every
// package's native modules registered, bound to one UI implementation.
type Instance struct {
	id         string
	debug      bool
	rt         *scripting.Runtime
	ui         uimanager.Implementation
	mediator   *bundle.Mediator
	pkgNames   []string
	handlers   []packages.UIHandler
	nav        *packages.NavigationPackage
	source     bundle.Source
	assets     fs.FS
	mainModule string
	fetcher    *devsupport.Fetcher
	log        *zap.Logger
}

// ID returns the instance's unique identifier.
func (i *Instance) ID() string { return i.id }

// Debug reports whether dev support is enabled.
func (i *Instance) Debug() bool { return i.debug }

func (i *Instance) Runtime() *scripting.Runtime { return i.rt }

func (i *Instance) UI() uimanager.Implementation { return i.ui }

// Mediator is the stable listener handed to the bundle download path.
func (i *Instance) Mediator() *bundle.Mediator { return i.mediator }

// PackageNames returns the names of the assembled packages in registration
// order. The packages themselves are not retained after Build.
func (i *Instance) PackageNames() []string { return slices.Clone(i.pkgNames) }

// Source returns the resolved bundle source.
func (i *Instance) Source() bundle.Source { return i.source }

// MainModule returns the entry module name.
func (i *Instance) MainModule() string { return i.mainModule }

// SetBundleObserver replaces the bundle download observer and returns the
// previous one. Nil clears it.
func (i *Instance) SetBundleObserver(o bundle.Observer) bundle.Observer {
	return i.mediator.SetObserver(o)
}

// UIHandlers returns the view types contributed by every package, in
// package order.
func (i *Instance) UIHandlers() []packages.UIHandler { return slices.Clone(i.handlers) }

// Run loads the bundle and executes it on the event loop. With dev support
// and a dev server configured, the bundle is fetched from the server first,
// falling back to the resolved source if the fetch fails.
func (i *Instance) Run(ctx context.Context) error {
	name, src, err := i.load(ctx)
	if err != nil {
		return err
	}
	return i.rt.RunBundle(name, src)
}

func (i *Instance) load(ctx context.Context) (string, []byte, error) {
	if i.fetcher != nil {
		src, err := i.fetcher.Fetch(ctx, i.mainModule)
		if err == nil {
			return i.mainModule + ".bundle", src, nil
		}
		i.log.Warn("falling back to resolved bundle", zap.Stringer("bundle", i.source), zap.Error(err))
	}
	src, err := bundle.Load(i.source, i.assets)
	if err != nil {
		return "", nil, err
	}
	return i.source.Ref(), src, nil
}

// Reload tears down every mounted root and runs the bundle again. It needs
// dev support.
func (i *Instance) Reload(ctx context.Context) error {
	if !i.debug {
		return ErrDevSupportDisabled
	}
	err := i.rt.RunOnLoopSync(func(*goja.Runtime) error {
		for _, root := range i.ui.Roots() {
			i.ui.RemoveRoot(root)
		}
		i.nav.Reset()
		return nil
	})
	if err != nil {
		return fmt.Errorf("host: reload teardown: %w", err)
	}
	i.log.Info("reloading bundle", zap.String("id", i.id))
	return i.Run(ctx)
}

// Close stops the scripting runtime. It is safe to call more than once.
func (i *Instance) Close() error {
	return i.rt.Close()
}
