package refparse

import (
	"fmt"
	"strings"
	"time"
)

// namedDaySets are the recognized day-filter keywords, including the
// alternating-day patterns. Values are time.Weekday numbers.
var namedDaySets = map[string][]time.Weekday{
	"daily":    {time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
	"weekdays": {time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
	"weekend":  {time.Saturday, time.Sunday},
	"mwf":      {time.Monday, time.Wednesday, time.Friday},
	"tth":      {time.Tuesday, time.Thursday},

	"sun": {time.Sunday}, "sunday": {time.Sunday},
	"mon": {time.Monday}, "monday": {time.Monday},
	"tue": {time.Tuesday}, "tuesday": {time.Tuesday},
	"wed": {time.Wednesday}, "wednesday": {time.Wednesday},
	"thu": {time.Thursday}, "thursday": {time.Thursday},
	"fri": {time.Friday}, "friday": {time.Friday},
	"sat": {time.Saturday}, "saturday": {time.Saturday},
}

// DaySet expands day-filter names into the concrete set of weekdays they
// cover. Unknown names fail rather than silently matching every day.
func DaySet(names []string) (map[time.Weekday]bool, error) {
	set := make(map[time.Weekday]bool)
	for _, n := range names {
		days, ok := namedDaySets[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return nil, fmt.Errorf("unknown day filter %q", n)
		}
		for _, d := range days {
			set[d] = true
		}
	}
	return set, nil
}

// DayAllowed reports whether now's weekday passes the day filter in names.
// An empty filter allows every day; an unparseable filter denies, so a typo
// drops the item from candidacy instead of quietly always playing it.
func DayAllowed(names []string, now time.Time) bool {
	if len(names) == 0 {
		return true
	}
	set, err := DaySet(names)
	if err != nil {
		return false
	}
	return set[now.Weekday()]
}
