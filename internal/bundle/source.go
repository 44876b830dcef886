package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrNoBundleSource is matched by every *NoBundleSourceError.
var ErrNoBundleSource = errors.New("bundle: no bundle source")

// NoBundleSourceError reports that neither an explicit bundle file nor a
// bundled asset could be resolved. It is a construction fault: no bridge
// instance may be built after it.
type NoBundleSourceError struct {
	// Source is the candidate that failed to load, zero if none was given.
	Source Source
	Err    error
}

func (e *NoBundleSourceError) Error() string {
	if e.Source.IsZero() {
		return "bundle: no bundle file or asset name configured"
	}
	if e.Err != nil {
		return fmt.Sprintf("bundle: cannot load %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("bundle: cannot load %s", e.Source)
}

func (e *NoBundleSourceError) Unwrap() error { return e.Err }

func (e *NoBundleSourceError) Is(target error) bool { return target == ErrNoBundleSource }

// SourceKind distinguishes the two bundle origins.
type SourceKind int

const (
	// KindNone is the zero, unresolved kind.
	KindNone SourceKind = iota
	// KindFile is an explicit bundle file on disk.
	KindFile
	// KindAsset is a named asset shipped with the host.
	KindAsset
)

func (k SourceKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindAsset:
		return "asset"
	default:
		return "none"
	}
}

// Source is exactly one of an explicit file path or an asset name.
type Source struct {
	kind SourceKind
	ref  string
}

// ExplicitFile returns a file-backed source.
func ExplicitFile(path string) Source { return Source{kind: KindFile, ref: path} }

// AssetName returns an asset-backed source.
func AssetName(name string) Source { return Source{kind: KindAsset, ref: name} }

// Kind returns the source kind.
func (s Source) Kind() SourceKind { return s.kind }

// Ref returns the file path or asset name.
func (s Source) Ref() string { return s.ref }

// IsZero reports whether s is unresolved.
func (s Source) IsZero() bool { return s.kind == KindNone }

func (s Source) String() string {
	if s.IsZero() {
		return "<none>"
	}
	return s.kind.String() + ":" + s.ref
}

// Resolve picks the bundle source: an explicit file when one is given,
// otherwise the named asset. Both empty is a *NoBundleSourceError.
func Resolve(file, asset string) (Source, error) {
	switch {
	case file != "":
		return ExplicitFile(file), nil
	case asset != "":
		return AssetName(asset), nil
	default:
		return Source{}, &NoBundleSourceError{}
	}
}

// Check verifies that s can be loaded: an explicit file must be a regular
// file and an asset must exist in assets.
func Check(s Source, assets fs.FS) error {
	var err error
	switch s.kind {
	case KindFile:
		var fi os.FileInfo
		if fi, err = os.Stat(s.ref); err == nil && !fi.Mode().IsRegular() {
			err = fmt.Errorf("%s is not a regular file", s.ref)
		}
	case KindAsset:
		if assets == nil {
			err = errors.New("no asset filesystem")
		} else {
			_, err = fs.Stat(assets, s.ref)
		}
	default:
		return &NoBundleSourceError{}
	}
	if err != nil {
		return &NoBundleSourceError{Source: s, Err: err}
	}
	return nil
}

// Select resolves the source and checks it against assets. An explicit file
// that fails Check gives way to the asset when one is named; if both fail
// the returned error carries both causes.
func Select(file, asset string, assets fs.FS) (Source, error) {
	src, err := Resolve(file, asset)
	if err != nil {
		return Source{}, err
	}
	fileErr := Check(src, assets)
	if fileErr == nil {
		return src, nil
	}
	if src.kind != KindFile || asset == "" {
		return Source{}, fileErr
	}
	src = AssetName(asset)
	if err := Check(src, assets); err != nil {
		return Source{}, errors.Join(fileErr, err)
	}
	return src, nil
}

// Load reads the bundle contents for s.
func Load(s Source, assets fs.FS) ([]byte, error) {
	if err := Check(s, assets); err != nil {
		return nil, err
	}
	var (
		b   []byte
		err error
	)
	if s.kind == KindFile {
		b, err = os.ReadFile(s.ref)
	} else {
		b, err = fs.ReadFile(assets, s.ref)
	}
	if err != nil {
		return nil, fmt.Errorf("bundle: read %s: %w", s, err)
	}
	return b, nil
}
