package sensor

// FeedResponse models the bedside monitor's response.
type FeedResponse struct {
	Readings []FeedReading `json:"readings"`
}

// FeedReading is one reading as the monitor reports it.
type FeedReading struct {
	Timestamp     string `json:"timestamp"`
	HeartRate     int    `json:"heartRate"`
	SpO2          int    `json:"spO2"`
	BloodPressure string `json:"bloodPressure"`
}
