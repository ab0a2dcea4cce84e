package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	a := Appointment{AppointmentDate: "15/09/2026"}
	parsed, err := a.ParseDate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 9, 15, 0, 0, 0, 0, time.Local), parsed)

	a = Appointment{AppointmentDate: " 15/09/2026 "}
	parsed, err = a.ParseDate()
	require.NoError(t, err)
	assert.Equal(t, 15, parsed.Day())
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "2026-09-15", "31/13/2026", "soon"} {
		a := Appointment{AppointmentDate: bad}
		_, err := a.ParseDate()
		assert.Error(t, err, "date %q must be rejected", bad)
	}
}

func TestHasParentEmail(t *testing.T) {
	assert.True(t, Appointment{ParentEmail: "a@x.com"}.HasParentEmail())
	assert.False(t, Appointment{ParentEmail: ""}.HasParentEmail())
	assert.False(t, Appointment{ParentEmail: "   "}.HasParentEmail())
}
