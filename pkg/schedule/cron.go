package schedule

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Years accepted by the optional year field
const (
	MinYear = 1970
	MaxYear = 2099
)

// Predefined descriptors in normalized seven field form.
var descriptors = map[string]string{
	"@yearly":   "0 0 0 1 1 * *",
	"@annually": "0 0 0 1 1 * *",
	"@monthly":  "0 0 0 1 * * *",
	"@weekly":   "0 0 0 * * 0 *",
	"@daily":    "0 0 0 * * * *",
	"@midnight": "0 0 0 * * * *",
	"@hourly":   "0 0 * * * * *",
}

// fieldNames index the seven positions for error messages
var fieldNames = [7]string{"second", "minute", "hour", "day-of-month", "month", "day-of-week", "year"}

// specParser reads the first six fields; the year is matched separately
var specParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// starBit is set by the parser on fields written as "*"
const starBit = 1 << 63

// Cron is a parsed cron expression evaluated at second granularity.
// Fields: second minute hour day-of-month month day-of-week [year]
type Cron struct {
	expr  string
	spec  *cron.SpecSchedule
	years []int
}

// NormalizeCron rewrites a 6 or 7 field expression, or a descriptor, into the canonical
// seven field form: a missing year becomes "*", "?" becomes "*" and names are upper-cased.
// Normalizing an already normalized expression returns it unchanged.
func NormalizeCron(expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", ErrEmptySchedule
	}

	if strings.HasPrefix(expr, "@") {
		return expandDescriptor(expr)
	}

	parts := strings.Fields(expr)
	switch len(parts) {
	case 6:
		parts = append(parts, "*")
	case 7:
	default:
		return "", fmt.Errorf("%w: expected 6 or 7 fields, got %d", ErrInvalidCronExpr, len(parts))
	}

	for i, p := range parts {
		if p == "?" {
			if i != 3 && i != 5 {
				return "", fmt.Errorf("%w: %s: \"?\" is only allowed for day-of-month and day-of-week",
					ErrInvalidCronField, fieldNames[i])
			}
			p = "*"
		}
		parts[i] = strings.ToUpper(p)
	}

	return strings.Join(parts, " "), nil
}

func expandDescriptor(expr string) (string, error) {
	if every, ok := strings.CutPrefix(expr, "@every "); ok {
		d, err := time.ParseDuration(strings.TrimSpace(every))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidEveryDuration, err)
		}
		return everyToCron(d)
	}

	if c, ok := descriptors[strings.ToLower(expr)]; ok {
		return c, nil
	}

	return "", fmt.Errorf("%w: unknown descriptor %q", ErrInvalidCronExpr, expr)
}

// everyToCron expresses a fixed interval as a step over a single field.
// Only intervals dividing a minute, an hour or a day evenly have an exact cron form.
func everyToCron(d time.Duration) (string, error) {
	const day = 24 * time.Hour

	switch {
	case d <= 0 || d%time.Second != 0:
		return "", fmt.Errorf("%w: %s must be a positive whole number of seconds", ErrInvalidEveryDuration, d)
	case d < time.Minute && time.Minute%d == 0:
		return fmt.Sprintf("%s * * * * * *", step(int(d/time.Second))), nil
	case d < time.Hour && d%time.Minute == 0 && time.Hour%d == 0:
		return fmt.Sprintf("0 %s * * * * *", step(int(d/time.Minute))), nil
	case d < day && d%time.Hour == 0 && day%d == 0:
		return fmt.Sprintf("0 0 %s * * * *", step(int(d/time.Hour))), nil
	case d == day:
		return descriptors["@daily"], nil
	}

	return "", fmt.Errorf("%w: %s does not divide a minute, an hour or a day evenly", ErrInvalidEveryDuration, d)
}

func step(n int) string {
	if n == 1 {
		return "*"
	}
	return "*/" + strconv.Itoa(n)
}

// ParseCron parses a cron expression. See NormalizeCron for the accepted forms.
func ParseCron(expr string) (*Cron, error) {
	normalized, err := NormalizeCron(expr)
	if err != nil {
		return nil, err
	}
	parts := strings.Fields(normalized)

	parts[5] = foldSunday(parts[5])
	sched, err := specParser.Parse(strings.Join(parts[:6], " "))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCronField, err)
	}
	spec, ok := sched.(*cron.SpecSchedule)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a field schedule", ErrInvalidCronExpr, normalized)
	}

	years, err := parseYears(parts[6])
	if err != nil {
		return nil, err
	}

	return &Cron{expr: normalized, spec: spec, years: years}, nil
}

// MustParseCron is like ParseCron but panics on error
func MustParseCron(expr string) *Cron {
	c, err := ParseCron(expr)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the normalized seven field expression
func (c *Cron) String() string {
	return c.expr
}

// Matches reports whether t, truncated to the second, is a firing time.
// When both day fields are restricted a day matches if either does.
func (c *Cron) Matches(t time.Time) bool {
	s := c.spec
	return c.yearAllowed(t.Year()) &&
		bit(s.Month, int(t.Month())) &&
		c.dayMatches(t) &&
		bit(s.Hour, t.Hour()) &&
		bit(s.Minute, t.Minute()) &&
		bit(s.Second, t.Second())
}

func (c *Cron) dayMatches(t time.Time) bool {
	dom := bit(c.spec.Dom, t.Day())
	dow := bit(c.spec.Dow, int(t.Weekday()))
	if c.spec.Dom&starBit != 0 || c.spec.Dow&starBit != 0 {
		return dom && dow
	}
	return dom || dow
}

// Next returns the first firing time strictly after the given time,
// or the zero time when the expression never fires again.
func (c *Cron) Next(after time.Time) time.Time {
	for {
		next := c.spec.Next(after)
		if next.IsZero() || next.Year() > MaxYear {
			return time.Time{}
		}
		if c.yearAllowed(next.Year()) {
			return next
		}

		i, _ := slices.BinarySearch(c.years, next.Year())
		if i == len(c.years) {
			return time.Time{}
		}
		// Resume just before New Year of the next allowed year
		after = time.Date(c.years[i], time.January, 1, 0, 0, 0, 0, next.Location()).Add(-time.Second)
	}
}

func (c *Cron) yearAllowed(year int) bool {
	_, ok := slices.BinarySearch(c.years, year)
	return ok
}

func bit(field uint64, v int) bool {
	return field&(1<<uint(v)) != 0
}

// foldSunday rewrites day-of-week 7 as 0 since the parser only knows 0-6
func foldSunday(field string) string {
	items := strings.Split(field, ",")
	for i, item := range items {
		switch {
		case item == "7":
			items[i] = "0"
		case strings.HasSuffix(item, "-7"):
			items[i] = strings.TrimSuffix(item, "-7") + "-6,0"
		}
	}
	return strings.Join(items, ",")
}

// parseYears expands the year field: "*", values, ranges and steps within MinYear-MaxYear
func parseYears(field string) ([]int, error) {
	var years []int
	for part := range strings.SplitSeq(field, ",") {
		rng, stepText, hasStep := strings.Cut(part, "/")
		stepBy := 1
		if hasStep {
			n, err := strconv.Atoi(stepText)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("%w: year: invalid step in %q", ErrInvalidCronField, part)
			}
			stepBy = n
		}

		start, end := MinYear, MaxYear
		if rng != "*" {
			lo, hi, isRange := strings.Cut(rng, "-")
			var err error
			if start, err = strconv.Atoi(lo); err != nil {
				return nil, fmt.Errorf("%w: year: invalid value %q", ErrInvalidCronField, lo)
			}
			switch {
			case isRange:
				if end, err = strconv.Atoi(hi); err != nil {
					return nil, fmt.Errorf("%w: year: invalid value %q", ErrInvalidCronField, hi)
				}
			case !hasStep:
				end = start
			}
		}

		if start < MinYear || end > MaxYear || start > end {
			return nil, fmt.Errorf("%w: year: %q out of bounds [%d-%d]", ErrInvalidCronField, part, MinYear, MaxYear)
		}
		for y := start; y <= end; y += stepBy {
			years = append(years, y)
		}
	}

	slices.Sort(years)
	return slices.Compact(years), nil
}
