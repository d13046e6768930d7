package sourcecode

import (
	"fmt"
	"strconv"

	"github.com/inoxlang/asserts/internal/utils"
)

// CodeBlock returns a window of numbered source lines around the given
// 1-based line. The line itself gets a `|> ` margin marker, the others `|  `.
// The window covers `before` lines above and `after - 1` lines below, and
// stops early at the end of the file.
func CodeBlock(path string, line, before, after int) []string {
	minN := utils.Max(line-before, 1)
	maxN := line + after

	lineFmt := "%" + strconv.Itoa(len(strconv.Itoa(maxN))) + "d"

	var lines []string
	for n := minN; n < maxN; n++ {
		text, ok := Line(path, n)
		if !ok {
			break
		}
		margin := "|  "
		if n == line {
			margin = "|> "
		}
		lines = append(lines, fmt.Sprintf(lineFmt, n)+margin+text)
	}
	return lines
}
