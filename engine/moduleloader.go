package engine

import (
	"io/fs"
	"path"
)

// ModuleLoader resolves an import specifier relative to the module
// that imported it into that module's source text. referrer is the
// specifier the importing module was itself loaded under ("" for the
// entry module passed to Context.ParseModule).
type ModuleLoader interface {
	Resolve(specifier, referrer string) (source string, err error)
}

// FileModuleLoader is an example ModuleLoader adapter over an fs.FS,
// resolving specifiers as slash-separated paths relative to referrer's
// directory. It is not wired into Context by default — spec.md §1
// scopes "module loader filesystem strategy" out as a non-goal, so a
// host that wants on-disk modules constructs one of these itself and
// calls SetModuleLoader.
type FileModuleLoader struct {
	FS fs.FS
}

// Resolve implements ModuleLoader by joining specifier against
// referrer's directory and reading the result from FS.
func (l FileModuleLoader) Resolve(specifier, referrer string) (string, error) {
	p := specifier
	if referrer != "" {
		p = path.Join(path.Dir(referrer), specifier)
	}
	p = path.Clean(p)
	data, err := fs.ReadFile(l.FS, p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
