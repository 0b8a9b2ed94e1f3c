package alerting

// DefaultThreshold is the gas level, in sensor units, at which an alert fires.
const DefaultThreshold int64 = 700

type Policy struct {
	Threshold int64
}

func NewPolicy(threshold int64) Policy {
	return Policy{Threshold: threshold}
}

// ShouldAlert reports whether a reading with the given gas level must be fanned out
// to the subscribers. The boundary is inclusive.
func (p Policy) ShouldAlert(gasLevel int64) bool {
	return gasLevel >= p.Threshold
}
