package model

type Flight struct {
	Number       string `json:"number"`
	Airline      string `json:"airline"`
	BookingClass string `json:"booking_class"`
	FlightDate   string `json:"flight_date"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Distance     int    `json:"distance"`
	Miles        int    `json:"miles"`
}
