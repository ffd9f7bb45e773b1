package tracking

// Config holds the subject tracker parameters
type Config struct {
	// Class is the detection class treated as the subject.
	Class string

	// MinScore is the confidence a candidate must exceed.
	MinScore float64

	// ResetBaselineAfter clears the motion baseline after this many
	// consecutive ticks without a subject. 0 keeps the last sighting
	// indefinitely, so a reappearing subject is differenced against
	// wherever it was last seen.
	ResetBaselineAfter int
}

// DefaultConfig returns the tracker defaults: first person above 0.5,
// baseline retained forever.
func DefaultConfig() Config {
	return Config{
		Class:              "person",
		MinScore:           0.5,
		ResetBaselineAfter: 0,
	}
}

// ShortMemoryConfig returns a configuration that forgets the baseline
// after roughly one second of absence at the default 10 Hz tick.
func ShortMemoryConfig() Config {
	cfg := DefaultConfig()
	cfg.ResetBaselineAfter = 10
	return cfg
}
