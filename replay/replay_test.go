package replay

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaySingleKaplanScript(t *testing.T) {
	script := `
unit K1 Kaplan 65 ft 1000 cfs 1500 kw
head 65 ft
unitsteps 5
solve power
print solution
dispatch for 750
dispatch print
end
`
	var out bytes.Buffer
	ip := New(&out)
	require.NoError(t, ip.Run(strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, "solved: S=1")
	assert.Contains(t, text, "K1:")
}

func TestReplayUnknownCommandContinues(t *testing.T) {
	script := `
bogus command here
unit K1 Kaplan 65 ft 1000 cfs 1500 kw
head 65 ft
unitsteps 5
solve power
end
`
	var out bytes.Buffer
	ip := New(&out)
	require.NoError(t, ip.Run(strings.NewReader(script)))
	assert.Contains(t, out.String(), "solved:")
}

func TestReplayZeroHeadLogsFailureAndContinues(t *testing.T) {
	script := `
unit K1 Kaplan 65 ft 1000 cfs 1500 kw
head 0 ft
solve power
echo still alive
end
`
	var out bytes.Buffer
	ip := New(&out)
	require.NoError(t, ip.Run(strings.NewReader(script)))
	assert.Contains(t, out.String(), "still alive")
}

func TestReplayCommentsAndBlankLinesAreSkipped(t *testing.T) {
	script := `
# this is a comment

echo hello # trailing comment
end
`
	var out bytes.Buffer
	ip := New(&out)
	require.NoError(t, ip.Run(strings.NewReader(script)))
	assert.Equal(t, "hello\n", out.String())
}
