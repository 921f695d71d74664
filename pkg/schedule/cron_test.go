package schedule_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/jobkit/pkg/schedule"
)

func TestNormalizeCron(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		want string
	}{
		{"six fields get a year", "0 */5 * * * *", "0 */5 * * * * *"},
		{"seven fields kept", "0 0 3 * * * 2030", "0 0 3 * * * 2030"},
		{"question mark", "0 0 10 ? * mon-fri", "0 0 10 * * MON-FRI *"},
		{"extra whitespace", "  0   0 10 *  * *  ", "0 0 10 * * * *"},
		{"yearly", "@yearly", "0 0 0 1 1 * *"},
		{"monthly", "@monthly", "0 0 0 1 * * *"},
		{"weekly", "@weekly", "0 0 0 * * 0 *"},
		{"daily", "@daily", "0 0 0 * * * *"},
		{"hourly", "@hourly", "0 0 * * * * *"},
		{"every second", "@every 1s", "* * * * * * *"},
		{"every 15 seconds", "@every 15s", "*/15 * * * * * *"},
		{"every 5 minutes", "@every 5m", "0 */5 * * * * *"},
		{"every 2 hours", "@every 2h", "0 0 */2 * * * *"},
		{"every day", "@every 24h", "0 0 0 * * * *"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := schedule.NormalizeCron(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := schedule.NormalizeCron(got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "normalization must be idempotent")
		})
	}
}

func TestParseCron_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		expr string
		err  error
	}{
		{"empty", "", schedule.ErrEmptySchedule},
		{"five fields", "* * * * *", schedule.ErrInvalidCronExpr},
		{"eight fields", "* * * * * * * *", schedule.ErrInvalidCronExpr},
		{"unknown descriptor", "@fortnightly", schedule.ErrInvalidCronExpr},
		{"question mark in seconds", "? * * * * *", schedule.ErrInvalidCronField},
		{"second out of range", "60 * * * * *", schedule.ErrInvalidCronField},
		{"day out of range", "0 0 0 32 * *", schedule.ErrInvalidCronField},
		{"month out of range", "0 0 0 * 13 *", schedule.ErrInvalidCronField},
		{"weekday out of range", "0 0 0 * * 8", schedule.ErrInvalidCronField},
		{"year out of range", "0 0 0 * * * 1969", schedule.ErrInvalidCronField},
		{"zero step", "*/0 * * * * *", schedule.ErrInvalidCronField},
		{"reversed range", "0 0 0 * * FRI-MON", schedule.ErrInvalidCronField},
		{"not a number", "a * * * * *", schedule.ErrInvalidCronField},
		{"empty list item", "1,,2 * * * * *", schedule.ErrInvalidCronField},
		{"every not dividing a minute", "@every 7s", schedule.ErrInvalidEveryDuration},
		{"every not dividing an hour", "@every 90m", schedule.ErrInvalidEveryDuration},
		{"every sub second", "@every 1500ms", schedule.ErrInvalidEveryDuration},
		{"every garbage", "@every soon", schedule.ErrInvalidEveryDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := schedule.ParseCron(tt.expr)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCron_Matches(t *testing.T) {
	t.Parallel()

	at := func(s string) time.Time {
		tm, err := time.Parse(time.DateTime, s)
		require.NoError(t, err)
		return tm
	}

	tests := []struct {
		name string
		expr string
		time string
		want bool
	}{
		{"step on seconds", "*/15 * * * * *", "2026-10-14 12:00:30", true},
		{"step off seconds", "*/15 * * * * *", "2026-10-14 12:00:31", false},
		{"offset step", "5/20 * * * * *", "2026-10-14 12:00:45", true},
		{"list", "0 0 9,17 * * *", "2026-10-14 17:00:00", true},
		{"weekday name", "0 30 10 * * MON", "2026-10-12 10:30:00", true},
		{"weekday name other day", "0 30 10 * * MON", "2026-10-13 10:30:00", false},
		{"weekday range", "0 0 0 * * MON-FRI", "2026-10-17 00:00:00", false},
		{"sunday as seven", "0 0 0 * * 7", "2026-10-18 00:00:00", true},
		{"range ending on seven", "0 0 0 * * FRI-7", "2026-10-18 00:00:00", true},
		{"range ending on seven excludes monday", "0 0 0 * * 5-7", "2026-10-19 00:00:00", false},
		{"month name", "0 0 0 1 OCT *", "2026-10-01 00:00:00", true},
		{"both day fields match either by weekday", "0 0 0 13 * FRI", "2026-10-16 00:00:00", true},
		{"both day fields match either by date", "0 0 0 13 * FRI", "2026-10-13 00:00:00", true},
		{"both day fields neither", "0 0 0 13 * FRI", "2026-10-14 00:00:00", false},
		{"day of month only", "0 0 0 13 * ?", "2026-10-16 00:00:00", false},
		{"year allowed", "0 0 0 1 1 * 2030", "2030-01-01 00:00:00", true},
		{"year excluded", "0 0 0 1 1 * 2030", "2031-01-01 00:00:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := schedule.ParseCron(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Matches(at(tt.time)))
		})
	}
}

func TestCron_Next(t *testing.T) {
	t.Parallel()

	at := func(s string) time.Time {
		tm, err := time.Parse(time.DateTime, s)
		require.NoError(t, err)
		return tm
	}

	tests := []struct {
		name  string
		expr  string
		after string
		want  string
	}{
		{"next second step", "*/15 * * * * *", "2026-10-14 12:00:14", "2026-10-14 12:00:15"},
		{"strictly after", "*/15 * * * * *", "2026-10-14 12:00:15", "2026-10-14 12:00:30"},
		{"next midnight", "@daily", "2026-10-14 10:00:00", "2026-10-15 00:00:00"},
		{"next monday", "0 30 10 * * MON", "2026-10-14 00:00:00", "2026-10-19 10:30:00"},
		{"leap day", "0 0 12 29 2 *", "2026-03-01 00:00:00", "2028-02-29 12:00:00"},
		{"month rollover", "0 0 0 1 * *", "2026-12-15 00:00:00", "2027-01-01 00:00:00"},
		{"year list", "0 0 0 1 1 * 2028,2030", "2028-06-01 00:00:00", "2030-01-01 00:00:00"},
		{"distant year", "0 0 12 * * * 2040", "2026-10-14 00:00:00", "2040-01-01 12:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := schedule.ParseCron(tt.expr)
			require.NoError(t, err)
			next := c.Next(at(tt.after))
			assert.Equal(t, at(tt.want), next)
			assert.True(t, c.Matches(next))
		})
	}

	t.Run("never again", func(t *testing.T) {
		t.Parallel()

		c := schedule.MustParseCron("0 0 0 1 1 * 2030")
		assert.True(t, c.Next(at("2030-06-01 00:00:00")).IsZero())
	})

	t.Run("impossible date", func(t *testing.T) {
		t.Parallel()

		c := schedule.MustParseCron("0 0 0 30 2 *")
		assert.True(t, c.Next(at("2026-01-01 00:00:00")).IsZero())
	})
}

func TestMustParseCron_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { schedule.MustParseCron("not a cron") })
}
