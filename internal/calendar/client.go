package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// DefaultMaxResults bounds event searches that do not specify a limit.
const DefaultMaxResults = 50

// DefaultRequestTimeout bounds every provider call. The inbound MCP request
// context carries no deadline on either transport, so the bound lives here.
const DefaultRequestTimeout = 30 * time.Second

// Client wraps the Google Calendar service for a single resolved credential.
// It is built per tool call and discarded afterwards; it never refreshes the
// token it was handed.
type Client struct {
	svc     *calendar.Service
	timeout time.Duration
}

// NewClient creates a Calendar client authenticated with the given access
// token. The token is wrapped in a static source, so an expired token fails
// the provider call instead of triggering a hidden refresh. Additional
// options are appended after the defaults; tests use them to point the
// client at a fake API endpoint.
func NewClient(ctx context.Context, token *oauth2.Token, opts ...option.ClientOption) (*Client, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	options := append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	svc, err := calendar.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc, timeout: DefaultRequestTimeout}, nil
}

// callContext derives the bounded context for a single provider call.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// ListCalendars lists the calendars on the user's calendar list, optionally
// filtered by a minimum access role ("reader", "writer", "owner").
func (c *Client) ListCalendars(ctx context.Context, minAccessRole string) ([]CalendarEntry, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	call := c.svc.CalendarList.List().Context(ctx)
	if minAccessRole != "" {
		call = call.MinAccessRole(minAccessRole)
	}

	list, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	entries := []CalendarEntry{}
	for _, entry := range list.Items {
		entries = append(entries, toCalendarEntry(entry))
	}

	return entries, nil
}

// FindEventsParams are the search parameters for FindEvents. Time bounds are
// RFC 3339 strings passed through to the provider unmodified.
type FindEventsParams struct {
	CalendarID string
	TimeMin    string
	TimeMax    string
	Query      string
	MaxResults int64
}

// FindEvents searches a calendar for events, expanding recurring events and
// ordering by start time.
func (c *Client) FindEvents(ctx context.Context, p FindEventsParams) ([]Event, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	maxResults := p.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	call := c.svc.Events.List(p.CalendarID).
		Context(ctx).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime")

	if p.TimeMin != "" {
		call = call.TimeMin(p.TimeMin)
	}
	if p.TimeMax != "" {
		call = call.TimeMax(p.TimeMax)
	}
	if p.Query != "" {
		call = call.Q(p.Query)
	}

	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to find events: %w", err)
	}

	results := []Event{}
	for _, event := range events.Items {
		results = append(results, toEvent(event))
	}

	return results, nil
}

// CreateEventParams are the fields for CreateEvent. StartTime and EndTime
// are RFC 3339 strings.
type CreateEventParams struct {
	CalendarID     string
	Summary        string
	StartTime      string
	EndTime        string
	Description    string
	Location       string
	AttendeeEmails []string
}

// CreateEvent creates a new timed event on the given calendar.
func (c *Client) CreateEvent(ctx context.Context, p CreateEventParams) (*CreatedEvent, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	event := &calendar.Event{
		Summary:     p.Summary,
		Description: p.Description,
		Location:    p.Location,
		Start:       &calendar.EventDateTime{DateTime: p.StartTime},
		End:         &calendar.EventDateTime{DateTime: p.EndTime},
	}

	for _, email := range p.AttendeeEmails {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := c.svc.Events.Insert(p.CalendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return toCreatedEvent(created), nil
}

// QuickAdd creates an event from a natural language description using the
// provider's parser.
func (c *Client) QuickAdd(ctx context.Context, calendarID, text string) (*CreatedEvent, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	created, err := c.svc.Events.QuickAdd(calendarID, text).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to quick add event: %w", err)
	}

	return toCreatedEvent(created), nil
}

// UpdateEventParams are the fields for UpdateEvent. Empty fields leave the
// corresponding event fields untouched.
type UpdateEventParams struct {
	CalendarID  string
	EventID     string
	Summary     string
	StartTime   string
	EndTime     string
	Description string
	Location    string
}

// UpdateEvent fetches an event and overwrites the provided fields.
func (c *Client) UpdateEvent(ctx context.Context, p UpdateEventParams) (*CreatedEvent, error) {
	// One deadline covers the fetch and the write.
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	existing, err := c.svc.Events.Get(p.CalendarID, p.EventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if p.Summary != "" {
		existing.Summary = p.Summary
	}
	if p.StartTime != "" {
		existing.Start = &calendar.EventDateTime{DateTime: p.StartTime}
	}
	if p.EndTime != "" {
		existing.End = &calendar.EventDateTime{DateTime: p.EndTime}
	}
	if p.Description != "" {
		existing.Description = p.Description
	}
	if p.Location != "" {
		existing.Location = p.Location
	}

	updated, err := c.svc.Events.Update(p.CalendarID, p.EventID, existing).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	return toCreatedEvent(updated), nil
}

// DeleteEvent deletes an event from the given calendar.
func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// QueryFreeBusy queries the availability of the given calendars over a time
// range. Time bounds are RFC 3339 strings.
func (c *Client) QueryFreeBusy(ctx context.Context, calendarIDs []string, timeMin, timeMax string) (*FreeBusy, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	result, err := c.svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: timeMin,
		TimeMax: timeMax,
		Items:   items,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	fb := &FreeBusy{
		TimeMin:   result.TimeMin,
		TimeMax:   result.TimeMax,
		Calendars: map[string]FreeBusyCalendar{},
	}
	for calID, cal := range result.Calendars {
		entry := FreeBusyCalendar{Busy: []FreeBusyInterval{}}
		for _, busy := range cal.Busy {
			entry.Busy = append(entry.Busy, FreeBusyInterval{Start: busy.Start, End: busy.End})
		}
		for _, calErr := range cal.Errors {
			entry.Errors = append(entry.Errors, calErr.Reason)
		}
		fb.Calendars[calID] = entry
	}

	return fb, nil
}

// CreateCalendar creates a new secondary calendar with the given title.
func (c *Client) CreateCalendar(ctx context.Context, summary string) (*CreatedCalendar, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	created, err := c.svc.Calendars.Insert(&calendar.Calendar{Summary: summary}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar: %w", err)
	}

	return &CreatedCalendar{
		ID:          created.Id,
		Summary:     created.Summary,
		Description: created.Description,
	}, nil
}
