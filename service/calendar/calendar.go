// Package calendar is the Calendar Service of spec.md §4.13: assembles
// an RFC 5545 ICS feed from a user's or group's hangout pointers. No
// ICS-encoding library appears anywhere in the retrieved corpus, so this
// package builds the (small, fixed) VEVENT grammar directly with
// strings.Builder rather than reaching for an out-of-corpus dependency —
// see DESIGN.md for the justification.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hangouts-inviter/eventgraph/internal/model"
)

// Service is the Calendar Service.
type Service struct{}

func New() *Service { return &Service{} }

// Feed renders pointers into a complete ICS document (spec.md §4.13:
// "one VEVENT per hangout pointer, stable UID across re-exports").
func (s *Service) Feed(ctx context.Context, calendarName string, pointers []model.HangoutPointer) string {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//eventgraph//calendar//EN\r\n")
	b.WriteString("X-WR-CALNAME:" + escape(calendarName) + "\r\n")
	for _, p := range pointers {
		writeEvent(&b, p)
	}
	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

func writeEvent(b *strings.Builder, p model.HangoutPointer) {
	b.WriteString("BEGIN:VEVENT\r\n")
	fmt.Fprintf(b, "UID:%s@eventgraph\r\n", p.HangoutID)
	fmt.Fprintf(b, "DTSTAMP:%s\r\n", icsTime(time.Now().Unix()))
	fmt.Fprintf(b, "DTSTART:%s\r\n", icsTime(p.StartTimestamp))
	fmt.Fprintf(b, "DTEND:%s\r\n", icsTime(p.EndTimestamp))
	fmt.Fprintf(b, "SUMMARY:%s\r\n", escape(p.Title))
	if p.Location.Name != "" || p.Location.Address != "" {
		fmt.Fprintf(b, "LOCATION:%s\r\n", escape(locationLine(p.Location)))
	}
	fmt.Fprintf(b, "STATUS:%s\r\n", icsStatus(p.Status))
	b.WriteString("END:VEVENT\r\n")
}

func locationLine(l model.Location) string {
	if l.Name != "" && l.Address != "" {
		return l.Name + ", " + l.Address
	}
	if l.Name != "" {
		return l.Name
	}
	return l.Address
}

func icsTime(unixSeconds int64) string {
	return time.Unix(unixSeconds, 0).UTC().Format("20060102T150405Z")
}

func icsStatus(status string) string {
	switch status {
	case "CANCELLED":
		return "CANCELLED"
	case "TENTATIVE":
		return "TENTATIVE"
	default:
		return "CONFIRMED"
	}
}

// escape applies the RFC 5545 TEXT escaping rules for the four
// characters that carry special meaning in a content value.
func escape(s string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return r.Replace(s)
}
