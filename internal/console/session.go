// Package console binds one API client and one quota store into the
// application session every command and view works through.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/theirongolddev/ghlc/internal/api"
	"github.com/theirongolddev/ghlc/internal/appointment"
	"github.com/theirongolddev/ghlc/internal/ratelimit"
)

// Caller performs one backend request. *api.Client satisfies it.
type Caller interface {
	Call(ctx context.Context, endpoint string, opts *api.Options) (json.RawMessage, error)
	BaseURL() string
}

// Session owns the client and the quota store for one process.
type Session struct {
	client Caller
	store  *ratelimit.Store
	logger *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a session. A nil store gets a fresh one.
func New(client Caller, store *ratelimit.Store, opts ...Option) *Session {
	if store == nil {
		store = ratelimit.NewStore()
	}
	s := &Session{client: client, store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the session's quota store.
func (s *Session) Store() *ratelimit.Store {
	return s.store
}

// BaseURL returns the backend the session talks to.
func (s *Session) BaseURL() string {
	return s.client.BaseURL()
}

// call routes one request through the quota tracker.
func (s *Session) call(ctx context.Context, endpoint string, opts *api.Options) (json.RawMessage, error) {
	raw, err := ratelimit.Track(ctx, s.store, func(ctx context.Context) (json.RawMessage, error) {
		return s.client.Call(ctx, endpoint, opts)
	})
	if err != nil {
		s.logger.Debug("call failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}
	if err := checkSuccess(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// checkSuccess turns an explicit success=false body into ErrUnsuccessful.
// Bodies without the flag pass.
func checkSuccess(raw json.RawMessage) error {
	ok := gjson.GetBytes(raw, "success")
	if !ok.Exists() || ok.Type != gjson.False {
		return nil
	}
	msg := strings.TrimSpace(gjson.GetBytes(raw, "message").String())
	if msg == "" {
		return api.ErrUnsuccessful
	}
	return fmt.Errorf("%w: %s", api.ErrUnsuccessful, msg)
}

func decode[T any](raw json.RawMessage, endpoint string) (*T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", endpoint, err)
	}
	return &v, nil
}

// Ping probes connectivity and returns the raw body.
func (s *Session) Ping(ctx context.Context) (json.RawMessage, error) {
	return s.call(ctx, api.EndpointPing, nil)
}

// Debug fetches the backend's diagnostic report.
func (s *Session) Debug(ctx context.Context) (json.RawMessage, error) {
	return s.call(ctx, api.EndpointDebug, nil)
}

// Calendars lists calendars, optionally scoped to one location.
func (s *Session) Calendars(ctx context.Context, locationID string) (*api.CalendarsResponse, error) {
	opts := &api.Options{}
	if id := strings.TrimSpace(locationID); id != "" {
		opts.Query = url.Values{"locationId": {id}}
	}
	raw, err := s.call(ctx, api.EndpointCalendars, opts)
	if err != nil {
		return nil, err
	}
	return decode[api.CalendarsResponse](raw, api.EndpointCalendars)
}

// Locations lists the locations visible to the backend credentials.
func (s *Session) Locations(ctx context.Context) (*api.LocationsResponse, error) {
	raw, err := s.call(ctx, api.EndpointLocations, nil)
	if err != nil {
		return nil, err
	}
	return decode[api.LocationsResponse](raw, api.EndpointLocations)
}

// Contacts lists contacts.
func (s *Session) Contacts(ctx context.Context) (*api.ContactsResponse, error) {
	raw, err := s.call(ctx, api.EndpointContacts, nil)
	if err != nil {
		return nil, err
	}
	return decode[api.ContactsResponse](raw, api.EndpointContacts)
}

// CreateContact creates a contact. First name is required.
func (s *Session) CreateContact(ctx context.Context, req api.CreateContactRequest) (*api.CreateContactResponse, error) {
	if strings.TrimSpace(req.FirstName) == "" {
		ve := &api.ValidationError{}
		ve.Add("firstName", "first name is required")
		return nil, ve
	}
	raw, err := s.call(ctx, api.EndpointCreateContact, &api.Options{Method: "POST", Body: req})
	if err != nil {
		return nil, err
	}
	return decode[api.CreateContactResponse](raw, api.EndpointCreateContact)
}

// Appointments lists booked appointments.
func (s *Session) Appointments(ctx context.Context) (*api.AppointmentsResponse, error) {
	raw, err := s.call(ctx, api.EndpointAppointments, nil)
	if err != nil {
		return nil, err
	}
	return decode[api.AppointmentsResponse](raw, api.EndpointAppointments)
}

// CreateAppointment validates the form and books it. An invalid form fails
// with *api.ValidationError without any request being made.
func (s *Session) CreateAppointment(ctx context.Context, form appointment.Form) (*api.CreateAppointmentResponse, error) {
	req, err := form.Request()
	if err != nil {
		return nil, err
	}
	raw, err := s.call(ctx, api.EndpointCreateAppointment, &api.Options{Method: "POST", Body: req})
	if err != nil {
		return nil, err
	}
	return decode[api.CreateAppointmentResponse](raw, api.EndpointCreateAppointment)
}

// RateLimit probes the quota endpoint and returns the store's snapshot
// afterwards. When the body carries no quota the prior snapshot is returned.
func (s *Session) RateLimit(ctx context.Context) (ratelimit.Snapshot, error) {
	if _, err := s.call(ctx, api.EndpointRateLimit, nil); err != nil {
		return ratelimit.Snapshot{}, err
	}
	return s.store.Current(), nil
}
