package sourcecode

import (
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strings"
	"sync"
)

// fileEntry caches everything the locator needs about one source file:
// its raw lines and, lazily, the parsed file used to bound statement scans.
type fileEntry struct {
	lines []string
	ok    bool

	parseOnce sync.Once
	fset      *token.FileSet
	file      *ast.File
}

var cache = struct {
	sync.Mutex
	files map[string]*fileEntry
}{
	files: map[string]*fileEntry{},
}

func entryFor(path string) *fileEntry {
	cache.Lock()
	defer cache.Unlock()

	if e, ok := cache.files[path]; ok {
		return e
	}

	e := &fileEntry{}
	data, err := os.ReadFile(path)
	if err == nil {
		lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
		// The trailing newline of the file is not an extra empty line.
		if n := len(lines); n > 0 && lines[n-1] == "" {
			lines = lines[:n-1]
		}
		e.lines = lines
		e.ok = true
	} else {
		logger.Debug().Str("file", path).Err(err).Msg("failed to read source file")
	}
	cache.files[path] = e
	return e
}

func (e *fileEntry) parsed() (*token.FileSet, *ast.File) {
	e.parseOnce.Do(func() {
		if !e.ok {
			return
		}
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, "src", strings.Join(e.lines, "\n"), parser.SkipObjectResolution)
		if err != nil {
			logger.Debug().Err(err).Msg("failed to parse source file")
			return
		}
		e.fset = fset
		e.file = f
	})
	return e.fset, e.file
}

// HasSource reports whether the source text of the given file is readable.
func HasSource(path string) bool {
	return entryFor(path).ok
}

// Line returns the 1-based nth source line of the file.
// The second result is false past the end of the file.
func Line(path string, n int) (string, bool) {
	e := entryFor(path)
	if !e.ok || n < 1 || n > len(e.lines) {
		return "", false
	}
	return e.lines[n-1], true
}
