package srs

// Params defines the configurable constants of the scheduling algorithm.
type Params struct {
	// CorrectMultiplier scales the interval after a correct answer.
	CorrectMultiplier float64

	// IncorrectIntervalDays is the fixed interval after any incorrect
	// answer. A single miss resets pacing rather than scaling down.
	IncorrectIntervalDays int

	// SeedIntervalDays is the interval granted by the first correct answer
	// on an item with no prior interval.
	SeedIntervalDays int

	// MaxIntervalDays caps interval growth.
	MaxIntervalDays int
}

// NewDefaultParams returns the production constants: intervals grow 2.5x per
// correct answer up to 180 days, a miss drops back to 1 day, and the first
// correct answer schedules the item 3 days out.
func NewDefaultParams() *Params {
	return &Params{
		CorrectMultiplier:     2.5,
		IncorrectIntervalDays: 1,
		SeedIntervalDays:      3,
		MaxIntervalDays:       180,
	}
}
