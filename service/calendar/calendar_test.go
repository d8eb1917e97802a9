package calendar

import (
	"context"
	"strings"
	"testing"

	"github.com/hangouts-inviter/eventgraph/internal/model"
)

func TestFeedWrapsEveryPointerInItsOwnVEvent(t *testing.T) {
	svc := New()
	pointers := []model.HangoutPointer{
		{HangoutID: "h1", Title: "Game Night", Status: "CONFIRMED", StartTimestamp: 1893456000, EndTimestamp: 1893459600, Location: model.Location{Name: "The Arcade"}},
		{HangoutID: "h2", Title: "Picnic", Status: "TENTATIVE", StartTimestamp: 1893542400, EndTimestamp: 1893546000},
	}

	ics := svc.Feed(context.Background(), "My Calendar", pointers)

	if !strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n") || !strings.HasSuffix(ics, "END:VCALENDAR\r\n") {
		t.Fatalf("expected a well-formed VCALENDAR envelope, got %q", ics)
	}
	if strings.Count(ics, "BEGIN:VEVENT") != 2 || strings.Count(ics, "END:VEVENT") != 2 {
		t.Fatalf("expected one VEVENT per pointer, got %q", ics)
	}
	if !strings.Contains(ics, "UID:h1@eventgraph\r\n") {
		t.Fatalf("expected a stable UID derived from the hangout id, got %q", ics)
	}
	if !strings.Contains(ics, "SUMMARY:Game Night\r\n") {
		t.Fatalf("expected the hangout title as SUMMARY, got %q", ics)
	}
	if !strings.Contains(ics, "LOCATION:The Arcade\r\n") {
		t.Fatalf("expected a LOCATION line when a pointer has one, got %q", ics)
	}
	if !strings.Contains(ics, "STATUS:TENTATIVE\r\n") {
		t.Fatalf("expected STATUS to carry through from the pointer, got %q", ics)
	}
}

func TestFeedOmitsLocationWhenThePointerHasNone(t *testing.T) {
	svc := New()
	ics := svc.Feed(context.Background(), "My Calendar", []model.HangoutPointer{
		{HangoutID: "h1", Title: "No Place Yet", StartTimestamp: 1893456000, EndTimestamp: 1893459600},
	})
	if strings.Contains(ics, "LOCATION:") {
		t.Fatalf("expected no LOCATION line for a pointer without one, got %q", ics)
	}
}

func TestFeedEscapesReservedCharactersInTextFields(t *testing.T) {
	svc := New()
	ics := svc.Feed(context.Background(), "Calendar; Personal, Shared", []model.HangoutPointer{
		{HangoutID: "h1", Title: "Lunch, then; planning\nsession", StartTimestamp: 1893456000, EndTimestamp: 1893459600},
	})
	if !strings.Contains(ics, "X-WR-CALNAME:Calendar\\; Personal\\, Shared\r\n") {
		t.Fatalf("expected the calendar name to be escaped, got %q", ics)
	}
	if !strings.Contains(ics, "SUMMARY:Lunch\\, then\\; planning\\nsession\r\n") {
		t.Fatalf("expected the summary to be escaped, got %q", ics)
	}
}
