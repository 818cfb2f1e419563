package lib

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitAmount(t *testing.T) {
	// 19.99 has no exact float64 representation; truncation would lose a cent.
	assert.Equal(t, int64(1999), unitAmount(19.99))
	assert.Equal(t, int64(1000), unitAmount(10))
	assert.Equal(t, int64(5), unitAmount(0.05))
	assert.Equal(t, int64(0), unitAmount(0))
	assert.Equal(t, int64(4999), unitAmount(49.99))
}
