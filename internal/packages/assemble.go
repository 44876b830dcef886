package packages

// Assemble builds the ordered package list of a bridge instance.
//
// defaultUI is always first. extras follow in order, except that any extra
// whose Kind is KindDefaultUI is dropped, so the default package is never
// registered twice. If no package in the result provides the core runtime,
// a CorePackage is appended last; a caller-supplied core package therefore
// replaces the fallback.
func Assemble(defaultUI Package, extras []Package) []Package {
	out := make([]Package, 0, len(extras)+2)
	out = append(out, defaultUI)
	for _, p := range extras {
		if p == nil || p.Kind() == KindDefaultUI {
			continue
		}
		out = append(out, p)
	}
	for _, p := range out {
		if providesCore(p) {
			return out
		}
	}
	return append(out, NewCorePackage())
}

func providesCore(p Package) bool {
	return p.Kind() == KindCoreRuntime || p.Capabilities().Has(ProvidesCoreRuntime)
}
