package organization

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganization_Location(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	assert.Equal(t, time.UTC, (&Organization{}).Location(nil))
	assert.Equal(t, berlin, (&Organization{}).Location(berlin))
	assert.Equal(t, berlin, (&Organization{ReportingTimezone: "Mars/Olympus"}).Location(berlin))

	var missing *Organization
	assert.Equal(t, berlin, missing.Location(berlin))

	tokyo := (&Organization{ReportingTimezone: "Asia/Tokyo"}).Location(berlin)
	assert.Equal(t, "Asia/Tokyo", tokyo.String())
}
