package sourcecode

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/inoxlang/asserts/internal/utils"
)

// wrapHeaderLines is the number of lines parseStatement prepends to the
// candidate text so it parses as a function body. Positions taken from
// Statement.Fset must be shifted down by this amount.
const wrapHeaderLines = 2

// fallbackScanWindow bounds the backward scan when the enclosing function
// cannot be determined.
const fallbackScanWindow = 50

// Statement is the shortest run of source lines around a failure line that
// parses as valid Go. Lines holds the dedented expression text, Stmts the
// parsed statements and Fset their positions (wrapped, see wrapHeaderLines).
type Statement struct {
	Lines []string
	Stmts []ast.Stmt
	Fset  *token.FileSet
}

// Position translates a node position into a (line, column) pair relative to
// the statement's expression text: 1-based line, 0-based column.
func (s *Statement) Position(n ast.Node) (line int, col int) {
	p := s.Fset.Position(n.Pos())
	return p.Line - wrapHeaderLines, p.Column - 1
}

// LocateStatement finds the minimal span of source lines containing the
// given failure line that parses as a complete statement. Spans ending at
// the failure line are tried shortest-first, extending backward one line at
// a time; if none parses the end line is extended forward (the runtime
// reports the first line of a multi-line call) and the backward scan reruns.
func LocateStatement(path string, line int) (*Statement, bool) {
	e := entryFor(path)
	if !e.ok || line < 1 || line > len(e.lines) {
		return nil, false
	}

	startMin, endMax, bounded := enclosingFuncBounds(e, line)
	if !bounded {
		startMin = utils.Max(1, line-fallbackScanWindow)
		endMax = line
	}

	for end := line; end <= utils.Min(endMax, len(e.lines)); end++ {
		for start := utils.Min(end, line); start >= startMin; start-- {
			text := Dedent(e.lines[start-1 : end])
			if len(text) == 0 {
				continue
			}
			if st, ok := parseStatement(text); ok {
				return st, true
			}
		}
		logger.Debug().Str("file", path).Int("line", line).Int("end", end).
			Msg("no statement span parsed, extending forward")
	}
	return nil, false
}

// enclosingFuncBounds returns the line span of the innermost function whose
// body contains the given line.
func enclosingFuncBounds(e *fileEntry, line int) (startLine, endLine int, ok bool) {
	fset, f := e.parsed()
	if f == nil {
		return 0, 0, false
	}

	ast.Inspect(f, func(n ast.Node) bool {
		var body *ast.BlockStmt
		switch fn := n.(type) {
		case *ast.FuncDecl:
			body = fn.Body
		case *ast.FuncLit:
			body = fn.Body
		default:
			return true
		}
		if body == nil {
			return true
		}
		start := fset.Position(body.Pos()).Line
		end := fset.Position(body.End()).Line
		if start <= line && line <= end {
			// Keep descending: a nested function is a tighter bound.
			startLine, endLine, ok = start, end, true
		}
		return true
	})
	return startLine, endLine, ok
}

// parseStatement wraps the candidate text as a function body and parses it.
func parseStatement(lines []string) (*Statement, bool) {
	src := "package p\nfunc _() {\n" + strings.Join(lines, "\n") + "\n}\n"

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "assertion", src, parser.SkipObjectResolution)
	if err != nil {
		return nil, false
	}

	decl, ok := f.Decls[0].(*ast.FuncDecl)
	if !ok || decl.Body == nil || len(decl.Body.List) == 0 {
		return nil, false
	}

	return &Statement{
		Lines: lines,
		Stmts: decl.Body.List,
		Fset:  fset,
	}, true
}
