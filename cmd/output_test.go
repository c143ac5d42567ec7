package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zhubert/workmux/internal/errors"
)

func TestPrintError_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	err := errors.E(errors.Op("test"), errors.KindSafety, "Cannot merge branch 'x' into itself.")
	printError(&buf, err)
	assert.Equal(t, "Error: Cannot merge branch 'x' into itself.\n", buf.String())
}

func TestPrintSuccess_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	printSuccess(&buf, "Merged '%s' into '%s'", "feature", "main")
	assert.Equal(t, "✓ Merged 'feature' into 'main'\n", buf.String())
}
