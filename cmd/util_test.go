package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minv/config"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$200.00", formatAmount(200))
	assert.Equal(t, "$1,234.50", formatAmount(1234.5))
	assert.Equal(t, "$0.00", formatAmount(0))
}

func TestOpenCalendarRequiresConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := openCalendar(cfg)
	assert.Error(t, err)

	cfg.Calendar.ICS = "/tmp/feed.ics"
	source, err := openCalendar(cfg)
	require.NoError(t, err)
	assert.NotNil(t, source)
}
