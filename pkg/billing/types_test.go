package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/otherjamesbrown/minv/pkg/parse"
)

func floatPtr(f float64) *float64 { return &f }

func TestCustomer_HourlyRate(t *testing.T) {
	withRate := Customer{ID: "cus_1", Metadata: map[string]string{"hourly_rate": "200.00"}}
	assert.Equal(t, 200.0, withRate.HourlyRate(150))

	noRate := Customer{ID: "cus_2", Metadata: map[string]string{}}
	assert.Equal(t, 150.0, noRate.HourlyRate(150))

	badRate := Customer{ID: "cus_3", Metadata: map[string]string{"hourly_rate": "invalid"}}
	assert.Equal(t, 150.0, badRate.HourlyRate(150))

	emptyRate := Customer{ID: "cus_4", Metadata: map[string]string{"hourly_rate": ""}}
	assert.Equal(t, 150.0, emptyRate.HourlyRate(150))

	negativeRate := Customer{ID: "cus_5", Metadata: map[string]string{"hourly_rate": "-5"}}
	assert.Equal(t, 150.0, negativeRate.HourlyRate(150))
}

func TestMeeting_EffectiveValuesWithoutOverrides(t *testing.T) {
	m := Meeting{Time: "2:00 PM", Duration: 1.0}

	assert.False(t, m.Edited())
	assert.Equal(t, "2:00 PM", m.EffectiveTime())
	assert.Equal(t, 1.0, m.EffectiveDuration())
	assert.Equal(t, 150.0, m.EffectiveRate(150))
	assert.Equal(t, 150.0, m.Amount(150))
}

func TestMeeting_OverridesTakePrecedence(t *testing.T) {
	m := Meeting{
		Time:            "2:00 PM",
		Duration:        1.0,
		EditedStartTime: &parse.Clock{Hour: 11, Minute: 30},
		EditedDuration:  floatPtr(2.5),
		CustomRate:      floatPtr(300),
	}

	assert.True(t, m.Edited())
	assert.Equal(t, "11:30 AM", m.EffectiveTime())
	assert.Equal(t, 2.5, m.EffectiveDuration())
	assert.Equal(t, 300.0, m.EffectiveRate(150))
	assert.Equal(t, 750.0, m.Amount(150))
}

func TestMeeting_CustomRateAloneIsNotEdited(t *testing.T) {
	m := Meeting{Duration: 1.0, CustomRate: floatPtr(300)}

	assert.False(t, m.Edited())
	assert.Equal(t, 300.0, m.Amount(150))
}

func TestMeeting_EditedDurationWithDefaultRate(t *testing.T) {
	m := Meeting{Duration: 1.0, EditedDuration: floatPtr(2.5)}

	assert.True(t, m.Edited())
	assert.Equal(t, 375.0, m.Amount(150))
}

func TestMinorUnits_RoundsHalfUp(t *testing.T) {
	assert.Equal(t, int64(20000), MinorUnits(200.00))
	assert.Equal(t, int64(12346), MinorUnits(123.456))
	assert.Equal(t, int64(12345), MinorUnits(123.454))
	assert.Equal(t, int64(37500), MinorUnits(2.5*150))
	assert.Equal(t, int64(1), MinorUnits(0.005))
	assert.Equal(t, int64(0), MinorUnits(0.004))
}
