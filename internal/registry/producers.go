// ABOUTME: Producer identities, native classification, and quality scores.
// ABOUTME: Quality scores are flat per-producer constants attached at normalization.
package registry

// Known producer identifiers. Producers evolve independently; an unknown
// producer is not an error, it just gets the conservative default score.
const (
	ProducerAppleHealth   = "apple_health"
	ProducerHealthConnect = "health_connect"
	ProducerFitbit        = "fitbit"
	ProducerOura          = "oura"
	ProducerWithings      = "withings"
	ProducerGarmin        = "garmin"
	ProducerStrava        = "strava"
	ProducerMyFitnessPal  = "myfitnesspal"
	ProducerManual        = "manual"
)

// nativeProducers are device-native health stores. Their records win
// contestable hour buckets during canonicalization.
var nativeProducers = map[string]bool{
	ProducerAppleHealth:   true,
	ProducerHealthConnect: true,
}

// qualityScores is a flat per-producer table. Deliberately not a function of
// measurement density or consistency.
var qualityScores = map[string]float64{
	ProducerAppleHealth:   0.95,
	ProducerHealthConnect: 0.95,
	ProducerGarmin:        0.90,
	ProducerOura:          0.90,
	ProducerWithings:      0.90,
	ProducerFitbit:        0.85,
	ProducerStrava:        0.85,
	ProducerMyFitnessPal:  0.70,
	ProducerManual:        0.60,
}

// DefaultQualityScore is used for producers not in the table. Never 1.0 so
// an unrecognized source can never outrank a known one on score.
const DefaultQualityScore = 0.5

// IsNativeProducer reports whether the producer is a device-native store.
func IsNativeProducer(producer string) bool {
	return nativeProducers[producer]
}

// QualityScore returns the score for a producer, falling back to the default.
func QualityScore(producer string) float64 {
	if score, ok := qualityScores[producer]; ok {
		return score
	}
	return DefaultQualityScore
}
