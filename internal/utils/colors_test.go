package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorize(t *testing.T) {
	orig := colorEnabled
	t.Cleanup(func() { colorEnabled = orig })

	colorEnabled = true
	assert.Equal(t, "\033[32mok\033[0m", Green("ok"))
	assert.Equal(t, "\033[1m\033[36mhi\033[0m\033[0m", Bold(Cyan("hi")))
	assert.Equal(t, "plain", Colorize("plain"))

	colorEnabled = false
	assert.Equal(t, "ok", Green("ok"))
}
