// ABOUTME: Canonical metric type registry with categories, units, and display names.
// ABOUTME: Also classifies metric types as contestable vs third-party-exclusive.
package registry

import (
	"fmt"
	"sort"
)

// Category groups metric types by the kind of data they describe.
type Category string

const (
	CategoryActivity        Category = "activity"
	CategoryVitals          Category = "vitals"
	CategoryBodyMeasurement Category = "body_measurement"
	CategorySleep           Category = "sleep"
	CategoryNutrition       Category = "nutrition"
	CategoryWorkout         Category = "workout"
	CategoryMentalHealth    Category = "mental_health"
)

// MetricType is a canonical identifier for a kind of measurement.
type MetricType string

const (
	// Activity
	MetricSteps          MetricType = "steps"
	MetricDistance       MetricType = "distance_km"
	MetricActiveCalories MetricType = "active_calories"
	MetricFlightsClimbed MetricType = "flights_climbed"

	// Vitals
	MetricHeartRate        MetricType = "heart_rate"
	MetricRestingHeartRate MetricType = "resting_heart_rate"
	MetricHRV              MetricType = "hrv"
	MetricBPSys            MetricType = "bp_sys"
	MetricBPDia            MetricType = "bp_dia"
	MetricBloodOxygen      MetricType = "blood_oxygen"
	MetricRespiratoryRate  MetricType = "respiratory_rate"
	MetricTemperature      MetricType = "temperature"

	// Body measurements
	MetricWeight  MetricType = "weight"
	MetricBodyFat MetricType = "body_fat"
	MetricBMI     MetricType = "bmi"

	// Sleep
	MetricSleepHours MetricType = "sleep_hours"

	// Nutrition
	MetricProtein    MetricType = "protein_g"
	MetricCarbs      MetricType = "carbs_g"
	MetricFat        MetricType = "fat_g"
	MetricFiber      MetricType = "fiber_g"
	MetricCaloriesIn MetricType = "calories_in"
	MetricWater      MetricType = "water_ml"

	// Workout detail
	MetricWorkoutSets   MetricType = "workout_sets"
	MetricWorkoutReps   MetricType = "workout_reps"
	MetricElevationGain MetricType = "elevation_gain_m"

	// Mental health
	MetricMood       MetricType = "mood"
	MetricEnergy     MetricType = "energy"
	MetricStress     MetricType = "stress"
	MetricMeditation MetricType = "meditation_min"
)

// Definition holds the immutable attributes of a canonical metric type.
type Definition struct {
	Type          MetricType
	Category      Category
	CanonicalUnit string
	DisplayName   string

	// Contestable metric types may be reported by both the device-native
	// health store and third-party producers; records for them compete
	// within an hour bucket. Non-contestable types only ever come from
	// third-party producers and are always canonical.
	Contestable bool
}

// definitions is the static knowledge base. Loaded once, never mutated.
var definitions = map[MetricType]Definition{
	MetricSteps:          {MetricSteps, CategoryActivity, "count", "Steps", true},
	MetricDistance:       {MetricDistance, CategoryActivity, "km", "Distance", true},
	MetricActiveCalories: {MetricActiveCalories, CategoryActivity, "kcal", "Active Calories", true},
	MetricFlightsClimbed: {MetricFlightsClimbed, CategoryActivity, "count", "Flights Climbed", true},

	MetricHeartRate:        {MetricHeartRate, CategoryVitals, "bpm", "Heart Rate", true},
	MetricRestingHeartRate: {MetricRestingHeartRate, CategoryVitals, "bpm", "Resting Heart Rate", true},
	MetricHRV:              {MetricHRV, CategoryVitals, "ms", "Heart Rate Variability", true},
	MetricBPSys:            {MetricBPSys, CategoryVitals, "mmHg", "Blood Pressure (Systolic)", true},
	MetricBPDia:            {MetricBPDia, CategoryVitals, "mmHg", "Blood Pressure (Diastolic)", true},
	MetricBloodOxygen:      {MetricBloodOxygen, CategoryVitals, "%", "Blood Oxygen", true},
	MetricRespiratoryRate:  {MetricRespiratoryRate, CategoryVitals, "breaths/min", "Respiratory Rate", true},
	MetricTemperature:      {MetricTemperature, CategoryVitals, "C", "Body Temperature", true},

	MetricWeight:  {MetricWeight, CategoryBodyMeasurement, "kg", "Weight", true},
	MetricBodyFat: {MetricBodyFat, CategoryBodyMeasurement, "%", "Body Fat", true},
	MetricBMI:     {MetricBMI, CategoryBodyMeasurement, "count", "BMI", true},

	MetricSleepHours: {MetricSleepHours, CategorySleep, "hours", "Sleep", true},

	MetricProtein:    {MetricProtein, CategoryNutrition, "g", "Protein", false},
	MetricCarbs:      {MetricCarbs, CategoryNutrition, "g", "Carbohydrates", false},
	MetricFat:        {MetricFat, CategoryNutrition, "g", "Fat", false},
	MetricFiber:      {MetricFiber, CategoryNutrition, "g", "Fiber", false},
	MetricCaloriesIn: {MetricCaloriesIn, CategoryNutrition, "kcal", "Calories Consumed", false},
	MetricWater:      {MetricWater, CategoryNutrition, "ml", "Water", false},

	MetricWorkoutSets:   {MetricWorkoutSets, CategoryWorkout, "count", "Sets", false},
	MetricWorkoutReps:   {MetricWorkoutReps, CategoryWorkout, "count", "Reps", false},
	MetricElevationGain: {MetricElevationGain, CategoryWorkout, "m", "Elevation Gain", false},

	MetricMood:       {MetricMood, CategoryMentalHealth, "scale", "Mood", false},
	MetricEnergy:     {MetricEnergy, CategoryMentalHealth, "scale", "Energy", false},
	MetricStress:     {MetricStress, CategoryMentalHealth, "scale", "Stress", false},
	MetricMeditation: {MetricMeditation, CategoryMentalHealth, "min", "Meditation", false},
}

// Lookup returns the definition for a metric type.
func Lookup(mt MetricType) (Definition, bool) {
	def, ok := definitions[mt]
	return def, ok
}

// IsValidMetricType checks if a string is a known canonical metric type.
func IsValidMetricType(s string) bool {
	_, ok := definitions[MetricType(s)]
	return ok
}

// Contestable reports whether records of this metric type compete with
// device-native records for canonical status. Unknown types are treated as
// non-contestable so the canonicalization engine never demotes them.
func Contestable(mt MetricType) bool {
	def, ok := definitions[mt]
	return ok && def.Contestable
}

// AllMetricTypes returns all registered metric types in stable order.
func AllMetricTypes() []MetricType {
	types := make([]MetricType, 0, len(definitions))
	for mt := range definitions {
		types = append(types, mt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// ConflictError indicates a registry misconfiguration, such as a producer
// mapping that targets an unregistered metric type. It is surfaced as a
// configuration-integrity failure rather than swallowed.
type ConflictError struct {
	MetricType MetricType
	Reason     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("registry conflict for %s: %s", e.MetricType, e.Reason)
}

// Validate checks the registry's internal consistency: every producer
// mapping must target a registered metric type, every mapping's producer
// unit must be convertible to the target's canonical unit, and every
// definition must carry a category and unit.
func Validate() error {
	for mt, def := range definitions {
		if def.Category == "" || def.CanonicalUnit == "" {
			return &ConflictError{MetricType: mt, Reason: "missing category or canonical unit"}
		}
	}
	for key, m := range producerMappings {
		def, ok := definitions[m.MetricType]
		if !ok {
			return &ConflictError{
				MetricType: m.MetricType,
				Reason:     fmt.Sprintf("mapping %s/%s targets unregistered metric type", key.Producer, key.Field),
			}
		}
		if !CanConvert(m.Unit, def.CanonicalUnit) {
			return &ConflictError{
				MetricType: m.MetricType,
				Reason:     fmt.Sprintf("mapping %s/%s emits %q which cannot convert to %q", key.Producer, key.Field, m.Unit, def.CanonicalUnit),
			}
		}
	}
	return nil
}
