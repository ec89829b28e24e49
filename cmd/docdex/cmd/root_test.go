package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_ShowsHelp(t *testing.T) {
	// Given: a root command
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	// When: executing with --help
	err := cmd.Execute()

	// Then: it should list the subcommands
	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "index")
	assert.Contains(t, output, "search")
	assert.Contains(t, output, "watch")
	assert.Contains(t, output, "version")
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"frobnicate"})

	err := cmd.Execute()

	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "empty returns nil",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace only returns nil",
			input: "   ",
			want:  nil,
		},
		{
			name:  "single entry",
			input: "md",
			want:  []string{"md"},
		},
		{
			name:  "multiple entries trimmed",
			input: "md, txt ,rst",
			want:  []string{"md", "txt", "rst"},
		},
		{
			name:  "empty segments dropped",
			input: "md,,txt,",
			want:  []string{"md", "txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitList(tt.input))
		})
	}
}
