//go:build race

package litmus

// raceEnabled reports whether the race detector is compiled in. Spin
// loops are far slower under it, so tests scale their rounds down.
const raceEnabled = true
