package loyalty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	assert.Equal(t, TierBronze, TierFor(0))
	assert.Equal(t, TierBronze, TierFor(999))
	assert.Equal(t, TierSilver, TierFor(1000))
	assert.Equal(t, TierSilver, TierFor(4999))
	assert.Equal(t, TierGold, TierFor(5000))
	assert.Equal(t, TierGold, TierFor(9999))
	assert.Equal(t, TierDiamond, TierFor(10000))
	assert.Equal(t, TierDiamond, TierFor(250000))
}
