package models

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates in booking forms.
const DateLayout = "2006-01-02"

// BookingKind identifies one of the customer submitted forms.
type BookingKind string

const (
	KindTour      BookingKind = "tour"
	KindCab       BookingKind = "cab"
	KindCarRental BookingKind = "car-rental"
	KindEvent     BookingKind = "event"
	KindAirTravel BookingKind = "air-travel"
	KindContact   BookingKind = "contact"
)

// Booking is a customer submitted form together with its review state.
type Booking struct {
	ID         string          `json:"id"`
	Kind       BookingKind     `json:"kind"`
	Reference  string          `json:"reference"`
	FullName   string          `json:"full_name"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone"`
	Message    string          `json:"message"`
	Status     Status          `json:"status"`
	AdminNotes string          `json:"admin_notes"`
	Total      decimal.Decimal `json:"total"`
	Details    map[string]any  `json:"details"`
	Audit
}

// BookingDetails is the kind specific part of a booking form.
type BookingDetails interface {
	Validate() error
	// Columns returns the values to persist, keyed by column name.
	Columns() map[string]any
}

// BookingRequest is a submission as received from the public site.
type BookingRequest struct {
	Kind     BookingKind
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Message  string `json:"message"`
	Details  BookingDetails
}

func (r *BookingRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.FullName, validation.Required, validation.Length(2, 120)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Phone, validation.Length(5, 30)),
		validation.Field(&r.Message, validation.Length(0, 4000)),
	)
}

// StatusUpdate is an admin review action on a booking.
type StatusUpdate struct {
	Status     Status  `json:"status"`
	AdminNotes *string `json:"admin_notes"`
}

// KindSpec describes how a booking kind is stored and presented.
type KindSpec struct {
	Kind       BookingKind
	Collection string
	Prefix     string
	Label      string
	// Columns are the kind specific columns, in schema order.
	Columns    []string
	NewDetails func() BookingDetails
}

var bookingKinds = []KindSpec{
	{
		Kind:       KindTour,
		Collection: "tour_bookings",
		Prefix:     "TB",
		Label:      "Tour booking",
		Columns:    []string{"tour", "travel_date", "adults", "children"},
		NewDetails: func() BookingDetails { return &TourDetails{} },
	},
	{
		Kind:       KindCab,
		Collection: "cab_bookings",
		Prefix:     "CB",
		Label:      "Cab booking",
		Columns:    []string{"pickup_location", "dropoff_location", "pickup_at", "passengers", "vehicle_type"},
		NewDetails: func() BookingDetails { return &CabDetails{} },
	},
	{
		Kind:       KindCarRental,
		Collection: "car_rental_bookings",
		Prefix:     "CR",
		Label:      "Car rental",
		Columns:    []string{"vehicle", "pickup_location", "dropoff_location", "pickup_at", "return_at", "with_driver"},
		NewDetails: func() BookingDetails { return &CarRentalDetails{} },
	},
	{
		Kind:       KindEvent,
		Collection: "event_registrations",
		Prefix:     "ER",
		Label:      "Event registration",
		Columns:    []string{"event", "attendees"},
		NewDetails: func() BookingDetails { return &EventRegistrationDetails{} },
	},
	{
		Kind:       KindAirTravel,
		Collection: "air_travel_requests",
		Prefix:     "AT",
		Label:      "Air travel request",
		Columns:    []string{"origin", "destination", "depart_date", "return_date", "trip_type", "travel_class", "passengers"},
		NewDetails: func() BookingDetails { return &AirTravelDetails{} },
	},
	{
		Kind:       KindContact,
		Collection: "contact_inquiries",
		Prefix:     "CI",
		Label:      "Contact inquiry",
		Columns:    []string{"subject"},
		NewDetails: func() BookingDetails { return &ContactDetails{} },
	},
}

// BookingKinds returns every booking kind in display order.
func BookingKinds() []KindSpec {
	return bookingKinds
}

// LookupKind finds the definition of a booking kind.
func LookupKind(kind string) (KindSpec, bool) {
	for _, ks := range bookingKinds {
		if string(ks.Kind) == kind {
			return ks, true
		}
	}
	return KindSpec{}, false
}

type TourDetails struct {
	TourID     string `json:"tour_id"`
	TravelDate string `json:"travel_date"`
	Adults     int    `json:"adults"`
	Children   int    `json:"children"`
}

func (d *TourDetails) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.TourID, validation.Required),
		validation.Field(&d.TravelDate, validation.Required, validation.Date(DateLayout)),
		validation.Field(&d.Adults, validation.Required, validation.Min(1), validation.Max(50)),
		validation.Field(&d.Children, validation.Min(0), validation.Max(50)),
	)
}

func (d *TourDetails) Columns() map[string]any {
	return map[string]any{
		"tour":        d.TourID,
		"travel_date": d.TravelDate,
		"adults":      d.Adults,
		"children":    d.Children,
	}
}

// Travellers is the number of people the booking is priced for.
func (d *TourDetails) Travellers() int {
	return d.Adults + d.Children
}

type CabDetails struct {
	PickupLocation  string      `json:"pickup_location"`
	DropoffLocation string      `json:"dropoff_location"`
	PickupAt        time.Time   `json:"pickup_at"`
	Passengers      int         `json:"passengers"`
	VehicleType     VehicleType `json:"vehicle_type"`
}

func (d *CabDetails) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.PickupLocation, validation.Required, validation.Length(2, 200)),
		validation.Field(&d.DropoffLocation, validation.Required, validation.Length(2, 200)),
		validation.Field(&d.PickupAt, validation.Required),
		validation.Field(&d.Passengers, validation.Required, validation.Min(1), validation.Max(60)),
		validation.Field(&d.VehicleType, validation.In(VehicleSedan, VehicleSUV, VehicleVan, VehicleMinibus, VehicleLuxury)),
	)
}

func (d *CabDetails) Columns() map[string]any {
	return map[string]any{
		"pickup_location":  d.PickupLocation,
		"dropoff_location": d.DropoffLocation,
		"pickup_at":        d.PickupAt,
		"passengers":       d.Passengers,
		"vehicle_type":     string(d.VehicleType),
	}
}

type CarRentalDetails struct {
	VehicleID       string    `json:"vehicle_id"`
	PickupLocation  string    `json:"pickup_location"`
	DropoffLocation string    `json:"dropoff_location"`
	PickupAt        time.Time `json:"pickup_at"`
	ReturnAt        time.Time `json:"return_at"`
	WithDriver      bool      `json:"with_driver"`
}

func (d *CarRentalDetails) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.VehicleID, validation.Required),
		validation.Field(&d.PickupLocation, validation.Required, validation.Length(2, 200)),
		validation.Field(&d.DropoffLocation, validation.Length(0, 200)),
		validation.Field(&d.PickupAt, validation.Required),
		validation.Field(&d.ReturnAt, validation.Required, validation.By(func(any) error {
			if !d.ReturnAt.After(d.PickupAt) {
				return errors.New("must be after pickup_at")
			}
			return nil
		})),
	)
}

func (d *CarRentalDetails) Columns() map[string]any {
	return map[string]any{
		"vehicle":          d.VehicleID,
		"pickup_location":  d.PickupLocation,
		"dropoff_location": d.DropoffLocation,
		"pickup_at":        d.PickupAt,
		"return_at":        d.ReturnAt,
		"with_driver":      d.WithDriver,
	}
}

// RentalDays is the number of billed days, partial days rounded up, at least one.
func (d *CarRentalDetails) RentalDays() int {
	hours := d.ReturnAt.Sub(d.PickupAt).Hours()
	days := int(hours / 24)
	if float64(days)*24 < hours {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

type EventRegistrationDetails struct {
	EventID   string `json:"event_id"`
	Attendees int    `json:"attendees"`
}

func (d *EventRegistrationDetails) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.EventID, validation.Required),
		validation.Field(&d.Attendees, validation.Required, validation.Min(1), validation.Max(20)),
	)
}

func (d *EventRegistrationDetails) Columns() map[string]any {
	return map[string]any{
		"event":     d.EventID,
		"attendees": d.Attendees,
	}
}

// TripType of an air travel request.
type TripType string

const (
	TripOneWay    TripType = "ONE_WAY"
	TripRoundTrip TripType = "ROUND_TRIP"
)

// TravelClass of an air travel request.
type TravelClass string

const (
	ClassEconomy  TravelClass = "ECONOMY"
	ClassPremium  TravelClass = "PREMIUM"
	ClassBusiness TravelClass = "BUSINESS"
	ClassFirst    TravelClass = "FIRST"
)

type AirTravelDetails struct {
	Origin      string      `json:"origin"`
	Destination string      `json:"destination"`
	DepartDate  string      `json:"depart_date"`
	ReturnDate  string      `json:"return_date"`
	TripType    TripType    `json:"trip_type"`
	TravelClass TravelClass `json:"travel_class"`
	Passengers  int         `json:"passengers"`
}

func (d *AirTravelDetails) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Origin, validation.Required, validation.Length(2, 120)),
		validation.Field(&d.Destination, validation.Required, validation.Length(2, 120)),
		validation.Field(&d.DepartDate, validation.Required, validation.Date(DateLayout)),
		validation.Field(&d.TripType, validation.Required, validation.In(TripOneWay, TripRoundTrip)),
		validation.Field(&d.ReturnDate,
			validation.When(d.TripType == TripRoundTrip, validation.Required),
			validation.Date(DateLayout),
			validation.By(func(any) error {
				// Both dates share DateLayout, so lexical order is date order.
				if d.ReturnDate != "" && d.DepartDate != "" && d.ReturnDate < d.DepartDate {
					return errors.New("must not be before depart_date")
				}
				return nil
			}),
		),
		validation.Field(&d.TravelClass, validation.In(ClassEconomy, ClassPremium, ClassBusiness, ClassFirst)),
		validation.Field(&d.Passengers, validation.Required, validation.Min(1), validation.Max(9)),
	)
}

func (d *AirTravelDetails) Columns() map[string]any {
	class := d.TravelClass
	if class == "" {
		class = ClassEconomy
	}
	return map[string]any{
		"origin":       d.Origin,
		"destination":  d.Destination,
		"depart_date":  d.DepartDate,
		"return_date":  d.ReturnDate,
		"trip_type":    string(d.TripType),
		"travel_class": string(class),
		"passengers":   d.Passengers,
	}
}

type ContactDetails struct {
	Subject string `json:"subject"`
}

func (d *ContactDetails) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Subject, validation.Required, validation.Length(3, 200)),
	)
}

func (d *ContactDetails) Columns() map[string]any {
	return map[string]any{"subject": d.Subject}
}
