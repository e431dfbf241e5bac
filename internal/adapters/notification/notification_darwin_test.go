//go:build darwin

package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildAppleScriptNotification(t *testing.T) {
	assert.Equal(t,
		`display notification "1 of 2 sources failed" with title "incback: \"docs\""`,
		buildAppleScriptNotification(`incback: "docs"`, "1 of 2 sources failed", "default"))
	assert.Equal(t,
		`display notification "m" with title "t" sound name "Glass"`,
		buildAppleScriptNotification("t", "m", "Glass"))
}
