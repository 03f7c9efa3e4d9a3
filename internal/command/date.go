package command

import (
	"time"
)

const (
	// InputLayout is the strict D-M-YYYY#H:mm argument format.
	InputLayout = "2-1-2006#15:04"
	// TemplateLayout pre-fills add and edit templates.
	TemplateLayout = "02-01-2006#15:04"
	DisplayLayout  = "2 January 2006 (15:04)"
	DayLayout      = "02 January 2006"
)

// ParseDate parses s in InputLayout. Out of range fields and trailing text
// are rejected.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(InputLayout, s, loc)
}
