package cache

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venomio5/VPFM7/internal/sim"
)

// A nil cache must behave as an always-miss cache so callers never branch.
func TestNilCacheIsSafe(t *testing.T) {
	var c *SummaryCache
	ctx := context.Background()

	assert.Nil(t, c.Get(ctx, 1))
	c.Set(ctx, &sim.Summary{ScheduleID: 1})
	c.Invalidate(ctx, 1)
	assert.NoError(t, c.Close())
}

func TestNewWithEmptyURLDisablesCache(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	c, err := New("", log)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestNewRejectsMalformedURL(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	_, err := New("://not-a-url", log)
	assert.Error(t, err)
}
