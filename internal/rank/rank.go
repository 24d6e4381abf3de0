package rank

import "strconv"

// NotFound is the rank recorded when the target is absent from the results
// or when the row could not be checked at all.
const NotFound Value = -1

// Value is a 1-based position within an ordered result list, or NotFound.
type Value int

// Found reports whether v is a real position.
func (v Value) Found() bool {
	return v > 0
}

func (v Value) String() string {
	return strconv.Itoa(int(v))
}

// Resolve returns the 1-based position of the first result that equals
// target exactly. Comparison is plain string equality; callers that want
// normalized matching must normalize both sides beforehand.
func Resolve(results []string, target string) Value {
	for i, r := range results {
		if r == target {
			return Value(i + 1)
		}
	}
	return NotFound
}
