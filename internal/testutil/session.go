package testutil

// DefaultSession is the session used when NewFixedSessionGenerator is given
// an empty id.
const DefaultSession = "test-session-default"

// FixedSessionGenerator returns the same session id every time.
//
// Unlike engine.FixedGenerator, which hands out ids in sequence, every run
// recorded through this generator lands in one session. Golden files that
// include run IDs depend on that.
//
// Thread-safety: FixedSessionGenerator is immutable and safe for concurrent use.
type FixedSessionGenerator struct {
	session string
}

// NewFixedSessionGenerator creates a generator for session. An empty session
// falls back to DefaultSession.
func NewFixedSessionGenerator(session string) *FixedSessionGenerator {
	if session == "" {
		session = DefaultSession
	}
	return &FixedSessionGenerator{session: session}
}

// Generate returns the fixed session id.
//
// Implements engine.SessionGenerator.
func (g *FixedSessionGenerator) Generate() string {
	return g.session
}
