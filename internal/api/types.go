package api

import "encoding/json"

// Endpoints of the backend REST contract, relative to the base URL.
const (
	EndpointPing              = "/ping/"
	EndpointDebug             = "/debug/"
	EndpointCalendars         = "/calendars/"
	EndpointLocations         = "/locations/"
	EndpointContacts          = "/contacts/"
	EndpointCreateContact     = "/contacts/create/"
	EndpointAppointments      = "/appointments/"
	EndpointCreateAppointment = "/appointments/create/"
	EndpointRateLimit         = "/rate-limit/"
)

// Envelope holds the fields every backend response may carry.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Calendar is one entry of the calendars listing.
type Calendar struct {
	ID     string `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status,omitempty" yaml:"status,omitempty"`
}

// Active reports whether the calendar is marked active.
func (c Calendar) Active() bool {
	return c.Status == "active"
}

// CalendarsResponse is the body of GET /calendars/.
type CalendarsResponse struct {
	Envelope
	Calendars  []Calendar `json:"calendars"`
	Total      int        `json:"total_calendars,omitempty"`
	LocationID string     `json:"location_id,omitempty"`
}

// Location is a sub-account the calendars belong to.
type Location struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
}

// LocationsResponse is the body of GET /locations/.
type LocationsResponse struct {
	Envelope
	Locations []Location `json:"locations"`
}

// Contact is a person an appointment can be booked for.
type Contact struct {
	ID        string `json:"id" yaml:"id"`
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName" yaml:"lastName"`
	Email     string `json:"email" yaml:"email"`
	Phone     string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// DisplayName is "First Last", falling back to the email or ID.
func (c Contact) DisplayName() string {
	name := c.FirstName
	if c.LastName != "" {
		if name != "" {
			name += " "
		}
		name += c.LastName
	}
	switch {
	case name != "":
		return name
	case c.Email != "":
		return c.Email
	default:
		return c.ID
	}
}

// ContactsResponse is the body of GET /contacts/.
type ContactsResponse struct {
	Envelope
	Contacts []Contact `json:"contacts"`
}

// CreateContactRequest is the body of POST /contacts/create/.
type CreateContactRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	LocationID string `json:"locationId,omitempty"`
}

// CreateContactResponse is the body returned by POST /contacts/create/.
type CreateContactResponse struct {
	Envelope
	Contact json.RawMessage `json:"contact,omitempty"`
}

// Appointment is a booked slot. Only ID and Title are guaranteed.
type Appointment struct {
	ID                string `json:"id" yaml:"id"`
	Title             string `json:"title" yaml:"title"`
	CalendarID        string `json:"calendarId,omitempty" yaml:"calendarId,omitempty"`
	ContactID         string `json:"contactId,omitempty" yaml:"contactId,omitempty"`
	StartTime         string `json:"startTime,omitempty" yaml:"startTime,omitempty"`
	EndTime           string `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	AppointmentStatus string `json:"appointmentStatus,omitempty" yaml:"appointmentStatus,omitempty"`
}

// AppointmentsResponse is the body of GET /appointments/.
type AppointmentsResponse struct {
	Envelope
	Appointments []Appointment `json:"appointments"`
}

// CreateAppointmentRequest is the body of POST /appointments/create/.
// Times are ISO-8601.
type CreateAppointmentRequest struct {
	CalendarID        string `json:"calendarId"`
	ContactID         string `json:"contactId"`
	StartTime         string `json:"startTime"`
	EndTime           string `json:"endTime"`
	Title             string `json:"title"`
	AppointmentStatus string `json:"appointmentStatus"`
}

// CreateAppointmentResponse is the body returned by POST /appointments/create/.
type CreateAppointmentResponse struct {
	Envelope
	Appointment Appointment `json:"appointment"`
}
