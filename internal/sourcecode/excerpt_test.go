package sourcecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeBlock(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 12; i++ {
		b.WriteString("line")
		b.WriteByte(byte('0' + i%10))
		b.WriteByte('\n')
	}
	path := writeSource(t, b.String())

	lines := CodeBlock(path, 9, 2, 3)
	require.Len(t, lines, 5)

	assert.Equal(t, " 7|  line7", lines[0])
	assert.Equal(t, " 8|  line8", lines[1])
	assert.Equal(t, " 9|> line9", lines[2])
	assert.Equal(t, "10|  line0", lines[3])
	assert.Equal(t, "11|  line1", lines[4])
}

func TestCodeBlockStopsAtFileEnd(t *testing.T) {
	path := writeSource(t, "a\nb\nc\n")

	lines := CodeBlock(path, 3, 1, 4)
	require.Len(t, lines, 2)
	assert.Equal(t, "2|  b", lines[0])
	assert.Equal(t, "3|> c", lines[1])
}

func TestCodeBlockClampsAtFileStart(t *testing.T) {
	path := writeSource(t, "a\nb\nc\n")

	lines := CodeBlock(path, 1, 5, 2)
	require.Len(t, lines, 2)
	assert.Equal(t, "1|> a", lines[0])
	assert.Equal(t, "2|  b", lines[1])
}
