package commandlist

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsCommand_ListsBuiltins(t *testing.T) {
	cmd := NewCommandsCommand()
	assert.True(t, cmd.HasAlias("cmds"))

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)
	require.NoError(t, cmd.Execute())

	got := out.String()
	assert.Contains(t, got, "NAME")
	assert.Regexp(t, `(?m)^!ping\s+p$`, got)
	assert.Regexp(t, `(?m)^!osu\s+-$`, got)
	assert.Regexp(t, `(?m)^!recent\s+rs$`, got)
	assert.Regexp(t, `(?m)^!recentpass\s+rp$`, got)
}
