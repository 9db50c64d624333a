package model

// Rating is the coarse fundamentals quality score.
type Rating string

const (
	RatingGood    Rating = "Good"
	RatingAverage Rating = "Average"
	RatingPoor    Rating = "Poor"
)

// RiskLevel is the volatility bucket.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskUnknown  RiskLevel = "Unknown"
)

// Fundamentals is a provider snapshot. Nil pointers mean the provider had no value.
type Fundamentals struct {
	PERatio        *float64
	ReturnOnEquity *float64 // percent, e.g. 15.2
	EPS            *float64
	MarketCap      *float64
	Sector         string
	Industry       string
}

// RiskAssessment is the classifier verdict for one ticker.
type RiskAssessment struct {
	Fundamentals Fundamentals
	Volatility   *float64 // annualized, nil when there was not enough history
	Rating       Rating
	RiskLevel    RiskLevel
	Allowed      bool
	Reasons      []string
}
