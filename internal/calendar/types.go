package calendar

import (
	calendar "google.golang.org/api/calendar/v3"
)

// EventTime is a calendar event boundary. Exactly one of DateTime (timed
// events) or Date (all-day events) is set.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

// Attendee is the projected view of an event attendee.
type Attendee struct {
	Email          string `json:"email,omitempty"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"`
	Optional       bool   `json:"optional,omitempty"`
	Organizer      bool   `json:"organizer,omitempty"`
}

// CalendarEntry is the projected view of a calendar list entry.
// Only these fields ever leave the server; everything else the provider
// returns is dropped.
type CalendarEntry struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	AccessRole  string `json:"accessRole,omitempty"`
	Primary     bool   `json:"primary"`
}

// Event is the projected view of a calendar event returned by searches.
type Event struct {
	ID          string     `json:"id"`
	Summary     string     `json:"summary,omitempty"`
	Description string     `json:"description,omitempty"`
	Start       *EventTime `json:"start,omitempty"`
	End         *EventTime `json:"end,omitempty"`
	Location    string     `json:"location,omitempty"`
	Attendees   []Attendee `json:"attendees"`
}

// CreatedEvent is the projected view returned by event mutations.
type CreatedEvent struct {
	ID       string     `json:"id"`
	Summary  string     `json:"summary,omitempty"`
	Start    *EventTime `json:"start,omitempty"`
	End      *EventTime `json:"end,omitempty"`
	HTMLLink string     `json:"htmlLink,omitempty"`
}

// CreatedCalendar is the projected view returned by calendar creation.
type CreatedCalendar struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
}

// FreeBusyInterval is a busy time range in a free/busy response.
type FreeBusyInterval struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// FreeBusyCalendar is the availability of a single queried calendar.
type FreeBusyCalendar struct {
	Busy   []FreeBusyInterval `json:"busy"`
	Errors []string           `json:"errors,omitempty"`
}

// FreeBusy is the free/busy response over the queried calendars.
type FreeBusy struct {
	TimeMin   string                      `json:"timeMin"`
	TimeMax   string                      `json:"timeMax"`
	Calendars map[string]FreeBusyCalendar `json:"calendars"`
}

// toEventTime converts the provider's event boundary, passing the wire
// strings through unmodified.
func toEventTime(t *calendar.EventDateTime) *EventTime {
	if t == nil {
		return nil
	}
	return &EventTime{
		DateTime: t.DateTime,
		Date:     t.Date,
		TimeZone: t.TimeZone,
	}
}

// toEvent projects a provider event onto the allowed search fields.
func toEvent(event *calendar.Event) Event {
	e := Event{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Start:       toEventTime(event.Start),
		End:         toEventTime(event.End),
		Location:    event.Location,
		Attendees:   []Attendee{},
	}

	for _, att := range event.Attendees {
		e.Attendees = append(e.Attendees, Attendee{
			Email:          att.Email,
			DisplayName:    att.DisplayName,
			ResponseStatus: att.ResponseStatus,
			Optional:       att.Optional,
			Organizer:      att.Organizer,
		})
	}

	return e
}

// toCreatedEvent projects a provider event onto the allowed mutation fields.
func toCreatedEvent(event *calendar.Event) *CreatedEvent {
	return &CreatedEvent{
		ID:       event.Id,
		Summary:  event.Summary,
		Start:    toEventTime(event.Start),
		End:      toEventTime(event.End),
		HTMLLink: event.HtmlLink,
	}
}

// toCalendarEntry projects a provider calendar list entry.
func toCalendarEntry(entry *calendar.CalendarListEntry) CalendarEntry {
	return CalendarEntry{
		ID:          entry.Id,
		Summary:     entry.Summary,
		Description: entry.Description,
		AccessRole:  entry.AccessRole,
		Primary:     entry.Primary,
	}
}
