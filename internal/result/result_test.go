package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPass.Valid())
	assert.True(t, StatusWarn.Valid())
	assert.True(t, StatusFail.Valid())
	assert.False(t, Status("unknown").Valid())
	assert.False(t, Status("").Valid())
}
