package engine

import (
	"fmt"

	"github.com/ecmago/ecmago/internal/ast"
	"github.com/ecmago/ecmago/internal/compiler"
	"github.com/ecmago/ecmago/internal/parser"
	"github.com/ecmago/ecmago/internal/sym"
	"github.com/ecmago/ecmago/internal/value"
	"github.com/ecmago/ecmago/internal/vm"
)

// Module is a parsed, linkable ECMAScript module (spec.md §4.2's
// module grammar, §6). Unlike Script, a Module's body excludes its own
// import/export declarations — the parser lifts those into Imports
// and Exports (internal/ast.Module) — so linking an import binding or
// reading an export back out is this package's job, not the
// compiler's (see compiler.Compile's own doc comment).
type Module struct {
	ctx        *Context
	specifier  string // "" for the entry module a host parsed directly
	src        *ast.Module
	cb         *compiler.CodeBlock
	evaluated  bool
	env        *vm.Environment
	exportsObj *value.Object // built lazily once this module has been evaluated

	exportCache map[string]Value
}

// ParseModule parses source as a module and compiles its body,
// returning a *EngineError with Kind ErrSyntax on failure. The
// returned Module is linked and evaluated by LoadLinkEvaluate, not
// here — parsing alone never runs an import resolution.
func (c *Context) ParseModule(source string) (*Module, error) {
	return c.parseModuleNamed(source, "")
}

// defaultExportSym is the hidden top-level binding an `export default
// <expr>` is compiled as an assignment to, since an anonymous default
// export has no declared name of its own to read back through
// TopBindings. The leading "*" makes it unreachable from source (no
// JavaScript identifier can contain one), the same trick real engines
// use for spec-internal bindings like "*default*".
const defaultExportSym = "*default*"

func (c *Context) parseModuleNamed(source, specifier string) (*Module, error) {
	m, err := parser.ParseModule(source, c.interner)
	if err != nil {
		return nil, syntaxError(err)
	}
	// ParseModule lifts every `export <decl>` and `export default
	// <expr>` out of Body into Exports for bookkeeping, but never
	// re-adds the declaration/expression itself anywhere runnable
	// (internal/parser/parser.go's module loop only appends a bare
	// statement to Body). Re-inject them here so the compiled
	// CodeBlock actually declares/evaluates what it exports; original
	// interleaving with the rest of Body is not preserved by the AST
	// shape ParseModule produces, so exported declarations run first —
	// documented as an Open Question resolution in DESIGN.md.
	body := make([]ast.Statement, 0, len(m.Body)+len(m.Exports))
	for _, exp := range m.Exports {
		switch {
		case exp.Default != nil:
			body = append(body, &ast.VariableDeclaration{
				Kind: ast.VarVar,
				Decls: []ast.VariableDeclarator{{
					Target: &ast.IdentifierPattern{Name: c.interner.Intern(defaultExportSym)},
					Init:   exp.Default,
				}},
			})
		case exp.Decl != nil:
			body = append(body, exp.Decl)
		}
	}
	body = append(body, m.Body...)
	cb := compiler.Compile(body, c.interner)
	return &Module{ctx: c, specifier: specifier, src: m, cb: cb}, nil
}

// LoadLinkEvaluate loads every module this one (transitively) imports
// via the Context's installed ModuleLoader, links their exported
// bindings against this module's import declarations, and evaluates
// the whole graph bottom-up — dependencies before dependents, matching
// ECMA-262's module evaluation order. No asynchronous fetch happens
// (see Promise's doc comment): the returned *Promise is always already
// settled.
func (m *Module) LoadLinkEvaluate() (*Promise, error) {
	visiting := make(map[string]bool)
	err := m.ctx.evaluateModule(m, visiting)
	if err != nil {
		ee, ok := err.(*EngineError)
		if !ok {
			ee = &EngineError{Kind: ErrLink, Message: err.Error(), cause: err}
		}
		return &Promise{err: ee}, ee
	}
	return &Promise{value: m.completionValue()}, nil
}

// Namespace returns the module's export table as a plain object —
// `import * as ns from "..."` binds exactly this. Evaluate (via
// LoadLinkEvaluate) must have already run.
func (m *Module) Namespace() Value {
	return value.ObjectVal(m.exportsObj)
}

// Export looks up one exported binding by its external name, the
// operation `import { name } from "..."` performs against the
// resolved module record.
func (m *Module) Export(name string) (Value, bool) {
	v, ok := m.exportCache[name]
	return v, ok
}

func (m *Module) completionValue() Value {
	if m.exportsObj == nil {
		return value.Undefined()
	}
	return value.ObjectVal(m.exportsObj)
}

// evaluateModule runs m's dependencies (recursively) before m itself,
// memoized per Module (m.evaluated; loadModule's c.modules cache hands
// back one Module per specifier string) so a diamond-shaped import
// graph evaluates each module exactly once, and detects a
// circular import via the visiting set rather than recursing forever.
func (c *Context) evaluateModule(m *Module, visiting map[string]bool) error {
	if m.evaluated {
		return nil
	}
	if visiting[m.specifier] {
		return &EngineError{Kind: ErrLink, Message: fmt.Sprintf("circular import involving %q", m.specifier)}
	}
	visiting[m.specifier] = true
	defer delete(visiting, m.specifier)

	deps := make(map[string]*Module, len(m.src.Imports))
	for _, imp := range m.src.Imports {
		dep, err := c.loadModule(imp.Specifier, m.specifier)
		if err != nil {
			return &EngineError{Kind: ErrLink, Message: fmt.Sprintf("could not resolve %q: %s", imp.Specifier, err), cause: err}
		}
		if err := c.evaluateModule(dep, visiting); err != nil {
			return err
		}
		deps[imp.Specifier] = dep
	}

	// Bind each import onto the global object under its local name —
	// the importing module's free identifiers resolve against
	// vm.Global (compiler/resolver.go's RefGlobal fallback) since
	// import declarations are not part of the compiled Body and so
	// never occupy a local slot of their own.
	for _, imp := range m.src.Imports {
		dep := deps[imp.Specifier]
		if imp.IsNamespace {
			c.vm.GlobalObject().Set(c.vm.StringKey(c.interner.Resolve(imp.LocalName)), dep.Namespace())
			continue
		}
		if len(imp.Named) == 0 {
			if imp.LocalName == 0 {
				continue // a bare `import "./mod.js"` — evaluated for side effects only
			}
			v, ok := dep.Export("default")
			if !ok {
				return &EngineError{Kind: ErrLink, Message: fmt.Sprintf("%q has no default export", imp.Specifier)}
			}
			c.vm.GlobalObject().Set(c.vm.StringKey(c.interner.Resolve(imp.LocalName)), v)
			continue
		}
		for imported, local := range imp.Named {
			v, ok := dep.Export(imported)
			if !ok {
				return &EngineError{Kind: ErrLink, Message: fmt.Sprintf("%q does not export %q", imp.Specifier, imported)}
			}
			c.vm.GlobalObject().Set(c.vm.StringKey(c.interner.Resolve(local)), v)
		}
	}

	_, env, err := c.vm.RunProgramLinked(m.cb)
	if err != nil {
		return fromThrown(c.vm, err)
	}
	m.env = env
	m.evaluated = true
	m.collectExports()
	return nil
}

// collectExports builds the module's namespace object and export
// cache by resolving every ExportDeclaration's bound name(s) against
// m.cb's TopBindings table and the Environment RunProgramLinked
// returned (see internal/vm/linking_api.go). A module's own
// script-style completion value has no defined use at module scope
// (spec.md §4.1 reserves that for Script), so only its exports matter.
func (m *Module) collectExports() {
	m.exportCache = make(map[string]Value)
	m.exportsObj = m.ctx.vm.NewPlainObject()

	add := func(external string, v Value) {
		m.exportCache[external] = v
		m.ctx.vm.SetPropertyValue(m.exportsObj, m.ctx.vm.StringKey(external), v)
	}

	for _, exp := range m.src.Exports {
		switch {
		case exp.Default != nil:
			name := m.ctx.interner.Intern(defaultExportSym)
			if v, ok := m.ctx.vm.ReadTopBinding(m.cb, m.env, name); ok {
				add("default", v)
			}
		case exp.Decl != nil:
			for _, name := range declaredNames(exp.Decl) {
				v, ok := m.ctx.vm.ReadTopBinding(m.cb, m.env, name)
				if ok {
					add(m.ctx.interner.Resolve(name), v)
				}
			}
		case exp.Named != nil:
			for local, external := range exp.Named {
				v, ok := m.ctx.vm.ReadTopBinding(m.cb, m.env, local)
				if ok {
					add(external, v)
				}
			}
		}
	}
}

// declaredNames returns the name(s) a top-level declaration statement
// binds, for resolving `export function f(){}` / `export class
// C{}` / `export const a = 1, b = 2` against TopBindings.
func declaredNames(s ast.Statement) []sym.Sym {
	switch n := s.(type) {
	case *ast.FunctionDeclaration:
		return []sym.Sym{n.Name}
	case *ast.ClassDeclaration:
		return []sym.Sym{n.Name}
	case *ast.VariableDeclaration:
		var names []sym.Sym
		for _, d := range n.Decls {
			if ip, ok := d.Target.(*ast.IdentifierPattern); ok {
				names = append(names, ip.Name)
			}
		}
		return names
	default:
		return nil
	}
}

// loadModule resolves specifier against referrer via the installed
// ModuleLoader, parses it, and caches the result so re-importing the
// same specifier elsewhere in the graph returns the same Module.
func (c *Context) loadModule(specifier, referrer string) (*Module, error) {
	if existing, ok := c.modules[specifier]; ok {
		return existing, nil
	}
	if c.loader == nil {
		return nil, fmt.Errorf("no ModuleLoader installed (call Context.SetModuleLoader)")
	}
	src, err := c.loader.Resolve(specifier, referrer)
	if err != nil {
		return nil, err
	}
	m, err := c.parseModuleNamed(src, specifier)
	if err != nil {
		return nil, err
	}
	c.modules[specifier] = m
	return m, nil
}
