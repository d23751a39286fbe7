package ir

// Version constants for the program format and engine.
const (
	// FormatVersion is the program wire format version.
	FormatVersion = "1"

	// EngineVersion is the foldr engine version.
	EngineVersion = "0.1.0"
)
