//go:build linux

package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinuxArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"--app-name=incback", "incback: backup finished", "2 sources backed up"},
		linuxArgs("incback: backup finished", "2 sources backed up", "default"))
	assert.Equal(t,
		[]string{"--app-name=incback", "--hint=string:sound-name:bell", "t", "m"},
		linuxArgs("t", "m", "bell"))
	assert.Equal(t, []string{"--app-name=incback", "t", "m"}, linuxArgs("t", "m", ""))
}
