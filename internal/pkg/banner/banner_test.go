package banner

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	Print(&buf, "v1.2.0", "0123456789abcdef", "unknown")

	out := buf.String()
	assert.Contains(t, out, "Version:     v1.2.0")
	assert.Contains(t, out, "Commit:      0123456")
	assert.NotContains(t, out, "Build Time")
}
