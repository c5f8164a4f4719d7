package otp

type planResponse struct {
	Plan  *plan      `json:"plan"`
	Error *planError `json:"error"`
}

type plan struct {
	Itineraries []itinerary `json:"itineraries"`
}

type itinerary struct {
	Duration     float64 `json:"duration"` // seconds
	WalkDistance float64 `json:"walkDistance"`
	Transfers    int     `json:"transfers"`
	Legs         []leg   `json:"legs"`
}

type leg struct {
	Mode     string  `json:"mode"`
	Route    string  `json:"route"`
	Distance float64 `json:"distance"`
}

type planError struct {
	ID      int    `json:"id"`
	Msg     string `json:"msg"`
	Message string `json:"message"`
}
