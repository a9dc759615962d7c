package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// writeScenario writes a scenario file into dir.
func writeScenario(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
}

const passingScenario = `name: add_two
description: two items in insertion order
setup:
  - action: add_item
    args: {text: "A"}
steps:
  - action: add_item
    args: {text: "B"}
    expect:
      total: 2
      last_text: "B"
`

const failingScenario = `name: wrong_count
description: expects more items than were added
steps:
  - action: add_item
    args: {text: "only"}
    expect:
      total: 5
`

const faultScenario = `name: dropped_write
description: the app forgets to persist new items
faults: [drop_write]
steps:
  - action: add_item
    args: {text: "lost"}
`
