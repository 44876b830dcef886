// Package host assembles a bridge instance: the package list, the UI
// operation policy and the bundle source, in that order, followed by the
// scripting runtime that runs the bundle.
//
// A Host is single-use. Build walks a fixed construction sequence and either
// yields exactly one Instance or leaves the host failed.
package host

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/dop251/goja_nodejs/require"
	"github.com/google/uuid"
	"github.com/joeycumines/uibridge/internal/bundle"
	"github.com/joeycumines/uibridge/internal/devsupport"
	"github.com/joeycumines/uibridge/internal/packages"
	"github.com/joeycumines/uibridge/internal/scripting"
	"github.com/joeycumines/uibridge/internal/uimanager"
	"go.uber.org/zap"
)

// DefaultMainModule is the entry module requested from a dev server.
const DefaultMainModule = "index"

var (
	// ErrAlreadyBuilt is returned by Build once an instance exists.
	ErrAlreadyBuilt = errors.New("host: instance already built")
	// ErrBuildFailed is returned by Build after an earlier Build failed.
	ErrBuildFailed = errors.New("host: previous build failed")
	// ErrDevSupportDisabled is returned by debug-only operations when the
	// instance was built without Debug.
	ErrDevSupportDisabled = errors.New("host: dev support disabled")
)

// DuplicateModuleError reports two packages registering the same native
// module name.
type DuplicateModuleError struct {
	Module string
	First  string
	Second string
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("host: native module %q registered by both %q and %q", e.Module, e.First, e.Second)
}

// Options configures a Host.
type Options struct {
	// Debug enables dev support. It is passed to every package.
	Debug bool
	// Packages are the caller's packages. A KindDefaultUI package here is
	// ignored in favour of the host's own.
	Packages []packages.Package
	// Registry receives every native module. Nil means a new registry.
	Registry *require.Registry

	// BundleFile is an explicit bundle path, e.g. one produced by an update
	// system. It wins over BundleAsset.
	BundleFile  string
	BundleAsset string
	// Assets is where BundleAsset resolves. Nil means bundle.DefaultAssets.
	Assets fs.FS
	// MainModule defaults to DefaultMainModule.
	MainModule string

	// UIProvider creates the UI implementation. Nil means
	// uimanager.SynchronizedProvider.
	UIProvider uimanager.Provider

	Logger      *zap.Logger
	SyncTimeout time.Duration

	// DevServer is the dev server base URL. Used only when Debug is set.
	DevServer  string
	HTTPClient *http.Client
}

// State is a step of the construction sequence.
type State int

const (
	StateUninitialized State = iota
	StatePackagesAssembled
	StateUIPolicyBound
	StateBundleSourceResolved
	StateInstanceBuilt
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StatePackagesAssembled:
		return "packages-assembled"
	case StateUIPolicyBound:
		return "ui-policy-bound"
	case StateBundleSourceResolved:
		return "bundle-source-resolved"
	case StateInstanceBuilt:
		return "instance-built"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether no further transition leaves s.
func (s State) IsTerminal() bool {
	return s == StateInstanceBuilt || s == StateFailed
}

func isAllowedTransition(from, to State) bool {
	if to == StateFailed {
		return !from.IsTerminal()
	}
	return !from.IsTerminal() && to == from+1
}

// Host builds one bridge instance.
type Host struct {
	mu    sync.Mutex
	opts  Options
	state State
	log   *zap.Logger

	defaultUI *packages.NavigationPackage
	pkgs      []packages.Package
	ui        uimanager.Implementation
	source    bundle.Source
}

// New returns an unbuilt host. Options are copied.
func New(opts Options) *Host {
	opts.Packages = append([]packages.Package(nil), opts.Packages...)
	log := opts.Logger
	if log == nil {
		log = Logger()
	}
	return &Host{
		opts:      opts,
		log:       log,
		defaultUI: packages.NewNavigationPackage(),
	}
}

// State returns the current construction state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// transition moves the host from one state to the next. Callers hold mu.
func (h *Host) transition(from, to State) error {
	if h.state != from {
		return fmt.Errorf("host: invalid transition: expected %s, got %s", from, h.state)
	}
	if !isAllowedTransition(from, to) {
		return fmt.Errorf("host: disallowed transition %s -> %s", from, to)
	}
	h.log.Debug("host state", zap.Stringer("from", from), zap.Stringer("to", to))
	h.state = to
	return nil
}

// Build runs the construction sequence. The instance's runtime is closed
// when ctx is cancelled.
func (h *Host) Build(ctx context.Context) (*Instance, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case StateInstanceBuilt:
		return nil, ErrAlreadyBuilt
	case StateFailed:
		return nil, ErrBuildFailed
	}

	inst, err := h.build(ctx)
	if err != nil {
		h.log.Error("host build failed", zap.Stringer("state", h.state), zap.Error(err))
		_ = h.transition(h.state, StateFailed)
		return nil, err
	}
	return inst, nil
}

// MustBuild is Build but panics on error.
func (h *Host) MustBuild(ctx context.Context) *Instance {
	inst, err := h.Build(ctx)
	if err != nil {
		panic(err)
	}
	return inst
}

func (h *Host) build(ctx context.Context) (*Instance, error) {
	h.pkgs = packages.Assemble(h.defaultUI, h.opts.Packages)
	if err := h.transition(StateUninitialized, StatePackagesAssembled); err != nil {
		return nil, err
	}

	provider := h.opts.UIProvider
	if provider == nil {
		provider = uimanager.SynchronizedProvider{}
	}
	h.ui = provider.CreateImplementation(h.log.Named("ui"))
	if h.ui == nil {
		return nil, errors.New("host: UI provider returned no implementation")
	}
	if err := h.transition(StatePackagesAssembled, StateUIPolicyBound); err != nil {
		return nil, err
	}

	assets := h.opts.Assets
	if assets == nil {
		assets = bundle.DefaultAssets()
	}
	src, err := bundle.Select(h.opts.BundleFile, h.opts.BundleAsset, assets)
	if err != nil {
		return nil, err
	}
	if h.opts.BundleFile != "" && src.Kind() == bundle.KindAsset {
		h.log.Warn("bundle file unavailable, using asset",
			zap.String("file", h.opts.BundleFile),
			zap.String("asset", src.Ref()),
		)
	}
	h.source = src
	if err := h.transition(StateUIPolicyBound, StateBundleSourceResolved); err != nil {
		return nil, err
	}

	inst, err := h.newInstance(ctx, assets)
	if err != nil {
		return nil, err
	}
	if err := h.transition(StateBundleSourceResolved, StateInstanceBuilt); err != nil {
		_ = inst.Close()
		return nil, err
	}
	h.log.Info("bridge instance built",
		zap.String("id", inst.ID()),
		zap.Stringer("bundle", src),
		zap.Strings("packages", inst.PackageNames()),
		zap.Bool("debug", h.opts.Debug),
	)
	return inst, nil
}

func (h *Host) newInstance(ctx context.Context, assets fs.FS) (*Instance, error) {
	registry := h.opts.Registry
	if registry == nil {
		registry = require.NewRegistry()
	}

	tags := new(packages.TagAllocator)
	pc := packages.Context{
		Ctx:   ctx,
		Debug: h.opts.Debug,
		UI:    h.ui,
		Tags:  tags,
		Log:   h.log,
	}
	owners := make(map[string]string)
	for _, p := range h.pkgs {
		for _, m := range p.NativeModules(pc) {
			if first, ok := owners[m.Name]; ok {
				return nil, &DuplicateModuleError{Module: m.Name, First: first, Second: p.Name()}
			}
			owners[m.Name] = p.Name()
			registry.RegisterNativeModule(m.Name, m.Loader)
		}
	}

	rtOpts := []scripting.Option{scripting.WithLogger(h.log.Named("js"))}
	if h.opts.SyncTimeout > 0 {
		rtOpts = append(rtOpts, scripting.WithTimeout(h.opts.SyncTimeout))
	}
	rt, err := scripting.NewRuntime(ctx, registry, rtOpts...)
	if err != nil {
		return nil, err
	}

	mainModule := h.opts.MainModule
	if mainModule == "" {
		mainModule = DefaultMainModule
	}
	inst := &Instance{
		id:         uuid.NewString(),
		debug:      h.opts.Debug,
		rt:         rt,
		ui:         h.ui,
		mediator:   new(bundle.Mediator),
		nav:        h.defaultUI,
		source:     h.source,
		assets:     assets,
		mainModule: mainModule,
		log:        h.log,
	}
	for _, p := range h.pkgs {
		inst.pkgNames = append(inst.pkgNames, p.Name())
		inst.handlers = append(inst.handlers, p.UIHandlers()...)
	}
	h.pkgs = nil
	if h.opts.Debug && h.opts.DevServer != "" {
		inst.fetcher = &devsupport.Fetcher{
			Server:   h.opts.DevServer,
			Client:   h.opts.HTTPClient,
			Observer: inst.mediator,
			Log:      h.log.Named("dev"),
		}
	}
	return inst, nil
}
