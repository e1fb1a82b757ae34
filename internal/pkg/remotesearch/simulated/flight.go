package simulated

import "time"

// fixture is the file layout of the simulated flight inventory.
type fixture struct {
	Status  string   `json:"status"`
	Flights []Flight `json:"flights"`
}

type Flight struct {
	FlightID        string      `json:"flight_id"`
	Provider        string      `json:"provider"`
	Airline         string      `json:"airline"`
	AirlineCode     string      `json:"airline_code"`
	Departure       FlightPoint `json:"departure"`
	Arrival         FlightPoint `json:"arrival"`
	DurationMinutes int         `json:"duration_minutes"`
	Stops           int         `json:"stops"`
	Aircraft        string      `json:"aircraft"`
	Price           Price       `json:"price"`
	AvailableSeats  int         `json:"available_seats"`
	FareClass       string      `json:"fare_class"`
	Baggage         Baggage     `json:"baggage"`
	Amenities       []string    `json:"amenities"`
}

type FlightPoint struct {
	Airport string    `json:"airport"`
	City    string    `json:"city,omitempty"`
	Time    time.Time `json:"time"`
}

type Price struct {
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
}

type Baggage struct {
	CarryOn int `json:"carry_on"`
	Checked int `json:"checked"`
}
