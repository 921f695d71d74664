package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// phrase turns a matched English schedule into a normalized cron expression
type phrase struct {
	re    *regexp.Regexp
	build func(m []string) (string, error)
}

const dayPattern = `(sunday|monday|tuesday|wednesday|thursday|friday|saturday|sun|mon|tue|wed|thu|fri|sat|weekday|weekend)`

var phrases = []phrase{
	{
		re: regexp.MustCompile(`^every (second|minute|hour|day)$`),
		build: func(m []string) (string, error) {
			return everyUnit(1, m[1])
		},
	},
	{
		re: regexp.MustCompile(`^every (\d+) (second|minute|hour|day)s?$`),
		build: func(m []string) (string, error) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				return "", fmt.Errorf("%w: %q is not a number", ErrInvalidPhrase, m[1])
			}
			return everyUnit(n, m[2])
		},
	},
	{
		re: regexp.MustCompile(`^(hourly|daily|weekly|monthly|yearly|annually)$`),
		build: func(m []string) (string, error) {
			return descriptors["@"+m[1]], nil
		},
	},
	{
		re: regexp.MustCompile(`^(?:every day |daily )?at (.+)$`),
		build: func(m []string) (string, error) {
			return atClock("*", m[1])
		},
	},
	{
		re: regexp.MustCompile(`^every ` + dayPattern + `(?: at (.+))?$`),
		build: func(m []string) (string, error) {
			clock := m[2]
			if clock == "" {
				clock = "midnight"
			}
			return atClock(weekdays(m[1]), clock)
		},
	},
}

// clockRe matches 10am, 10:30 pm and 22:15
var clockRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))? ?(am|pm)?$`)

// FromEnglish converts an English schedule such as "every 15 seconds" or
// "every monday at 10:30 am" into a normalized cron expression.
// ok is false when the text is not a known phrase.
func FromEnglish(text string) (cron string, ok bool, err error) {
	text = strings.Join(strings.Fields(strings.ToLower(text)), " ")

	for _, p := range phrases {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		cron, err := p.build(m)
		if err != nil {
			return "", true, fmt.Errorf("%q: %w", text, err)
		}
		return cron, true, nil
	}

	return "", false, nil
}

// everyUnit follows the @every rule: n must divide the next larger unit evenly so the
// step never skews at the wrap. Day-of-month steps restart each month, so days take n=1 only.
func everyUnit(n int, unit string) (string, error) {
	units := map[string]time.Duration{"second": time.Second, "minute": time.Minute, "hour": time.Hour}
	if unit == "day" {
		if n != 1 {
			return "", fmt.Errorf("%w: every %d days has no exact cron form", ErrInvalidPhrase, n)
		}
		return descriptors["@daily"], nil
	}
	if n < 1 {
		return "", fmt.Errorf("%w: every %d %ss must be positive", ErrInvalidPhrase, n, unit)
	}

	cron, err := everyToCron(time.Duration(n) * units[unit])
	if err != nil {
		return "", fmt.Errorf("%w: every %d %ss: %w", ErrInvalidPhrase, n, unit, err)
	}
	return cron, nil
}

func atClock(dow, clock string) (string, error) {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("0 %d %d * * %s *", minute, hour, dow), nil
}

func parseClock(s string) (hour, minute int, err error) {
	switch s {
	case "midnight":
		return 0, 0, nil
	case "noon":
		return 12, 0, nil
	}

	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: unrecognized time %q", ErrInvalidPhrase, s)
	}

	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute out of range in %q", ErrInvalidPhrase, s)
	}

	switch m[3] {
	case "":
		if hour > 23 {
			return 0, 0, fmt.Errorf("%w: hour out of range in %q", ErrInvalidPhrase, s)
		}
	default:
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("%w: hour out of range in %q", ErrInvalidPhrase, s)
		}
		hour %= 12
		if m[3] == "pm" {
			hour += 12
		}
	}

	return hour, minute, nil
}

func weekdays(day string) string {
	switch day {
	case "weekday":
		return "MON-FRI"
	case "weekend":
		return "SUN,SAT"
	}
	return strings.ToUpper(day[:3])
}

// Normalize turns a schedule, either an English phrase or a cron expression, into
// the canonical seven field cron form. Text that is no known phrase is parsed as cron.
func Normalize(expr string) (string, error) {
	if strings.TrimSpace(expr) == "" {
		return "", ErrEmptySchedule
	}

	cron, ok, err := FromEnglish(expr)
	if ok {
		return cron, err
	}

	normalized, err := NormalizeCron(expr)
	if err != nil {
		return "", err
	}
	// Validate field values too so a bad expression fails here
	if _, err := ParseCron(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}

// Parse normalizes expr and parses the result
func Parse(expr string) (*Cron, error) {
	normalized, err := Normalize(expr)
	if err != nil {
		return nil, err
	}
	return ParseCron(normalized)
}
