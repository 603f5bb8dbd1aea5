// Package noosexit implements an analyzer forbidding os.Exit in main.main.
package noosexit

import (
	"go/ast"
	"go/types"
	"strconv"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports direct os.Exit calls in the body of main.main. Calls are
// resolved through type information, so renamed imports are caught too.
// Exiting through a logger (zap's Fatal) is allowed: it flushes first.
var Analyzer = &analysis.Analyzer{
	Name:     "noosexit",
	Doc:      "forbid direct os.Exit in main.main",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (any, error) {
	if pass.Pkg.Name() != "main" || strings.HasSuffix(pass.Pkg.Path(), "/cmd/staticlint") {
		return nil, nil
	}

	skip := make(map[*ast.File]bool)
	for _, f := range pass.Files {
		name := pass.Fset.Position(f.Pos()).Filename
		// go test synthesizes a main package in the build cache
		if strings.Contains(name, "/go-build/") || ast.IsGenerated(f) || importsTesting(f) {
			skip[f] = true
		}
	}

	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)
	insp.WithStack([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node, push bool, stack []ast.Node) bool {
		if !push {
			return true
		}
		if f, ok := stack[0].(*ast.File); ok && skip[f] {
			return false
		}
		if !insideMain(stack) || !isOSExit(pass.TypesInfo, n.(*ast.CallExpr)) {
			return true
		}
		pass.Reportf(n.Pos(), "do not call os.Exit inside main; delegate to run() and return code")
		return true
	})
	return nil, nil
}

// insideMain reports whether the innermost function on the stack is the
// top-level func main. Calls inside closures declared in main do not count.
func insideMain(stack []ast.Node) bool {
	for i := len(stack) - 1; i >= 0; i-- {
		switch fn := stack[i].(type) {
		case *ast.FuncLit:
			return false
		case *ast.FuncDecl:
			return fn.Recv == nil && fn.Name.Name == "main"
		}
	}
	return false
}

func isOSExit(info *types.Info, call *ast.CallExpr) bool {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	fn, ok := info.Uses[sel.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil {
		return false
	}
	return fn.Pkg().Path() == "os" && fn.Name() == "Exit"
}

func importsTesting(f *ast.File) bool {
	for _, im := range f.Imports {
		if p, _ := strconv.Unquote(im.Path.Value); p == "testing" || p == "testing/internal/testdeps" {
			return true
		}
	}
	return false
}
