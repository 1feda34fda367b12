package cmds

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/pleader/pkg/markup"
)

func TestRenderCommandPlainOutput(t *testing.T) {
	cmd := NewRenderCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("## Remedies\n1. Notice\n2. Suit\nSee **Order 37**."))
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "Remedies\n1. Notice\n2. Suit\nSee Order 37.\n", out.String())
}

func TestDumpBlocks(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, dumpBlocks(&out, markup.Render("# Title\n\nIt is **void**.")))

	s := out.String()
	assert.Contains(t, s, "kind: heading")
	assert.Contains(t, s, "level: 1")
	assert.Contains(t, s, "kind: blank")
	assert.Contains(t, s, "emphasis: true")
}
