// ABOUTME: Per-producer field mappings to canonical metric types.
// ABOUTME: Static configuration; an unmapped field is skip-and-log, not fatal.
package registry

// FieldKey identifies a producer-specific field.
type FieldKey struct {
	Producer string
	Field    string
}

// Mapping resolves a producer field to a canonical metric type and the unit
// the producer emits in.
type Mapping struct {
	MetricType MetricType
	Unit       string
}

// producerMappings is the static producer vocabulary. Producers add and
// rename fields over time; missing entries are dropped by the normalizer.
var producerMappings = map[FieldKey]Mapping{
	// Apple Health (HealthKit quantity identifiers)
	{ProducerAppleHealth, "HKQuantityTypeIdentifierStepCount"}:              {MetricSteps, "count"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierDistanceWalkingRunning"}: {MetricDistance, "m"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierActiveEnergyBurned"}:     {MetricActiveCalories, "kcal"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierFlightsClimbed"}:         {MetricFlightsClimbed, "count"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierHeartRate"}:              {MetricHeartRate, "bpm"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierRestingHeartRate"}:       {MetricRestingHeartRate, "bpm"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierHeartRateVariabilitySDNN"}: {MetricHRV, "ms"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierBloodPressureSystolic"}:  {MetricBPSys, "mmHg"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierBloodPressureDiastolic"}: {MetricBPDia, "mmHg"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierOxygenSaturation"}:       {MetricBloodOxygen, "%"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierRespiratoryRate"}:        {MetricRespiratoryRate, "breaths/min"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierBodyTemperature"}:        {MetricTemperature, "C"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierBodyMass"}:               {MetricWeight, "kg"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierBodyFatPercentage"}:      {MetricBodyFat, "%"},
	{ProducerAppleHealth, "HKQuantityTypeIdentifierBodyMassIndex"}:          {MetricBMI, "count"},
	{ProducerAppleHealth, "HKCategoryTypeIdentifierSleepAnalysis"}:          {MetricSleepHours, "min"},

	// Fitbit
	{ProducerFitbit, "activities-steps"}:        {MetricSteps, "count"},
	{ProducerFitbit, "activities-distance"}:     {MetricDistance, "km"},
	{ProducerFitbit, "activities-calories"}:     {MetricActiveCalories, "kcal"},
	{ProducerFitbit, "activities-floors"}:       {MetricFlightsClimbed, "count"},
	{ProducerFitbit, "activities-heart"}:        {MetricHeartRate, "bpm"},
	{ProducerFitbit, "sleep-minutesAsleep"}:     {MetricSleepHours, "min"},
	{ProducerFitbit, "body-weight"}:             {MetricWeight, "kg"},
	{ProducerFitbit, "body-fat"}:                {MetricBodyFat, "%"},

	// Oura
	{ProducerOura, "daily_activity.steps"}:             {MetricSteps, "count"},
	{ProducerOura, "daily_activity.active_calories"}:   {MetricActiveCalories, "kcal"},
	{ProducerOura, "daily_sleep.total_sleep_duration"}: {MetricSleepHours, "s"},
	{ProducerOura, "heart_rate.bpm"}:                   {MetricHeartRate, "bpm"},
	{ProducerOura, "daily_readiness.hrv_balance"}:      {MetricHRV, "ms"},
	{ProducerOura, "daily_readiness.temperature_deviation"}: {MetricTemperature, "C"},

	// Withings
	{ProducerWithings, "weight"}:           {MetricWeight, "kg"},
	{ProducerWithings, "fat_ratio"}:        {MetricBodyFat, "%"},
	{ProducerWithings, "heart_pulse"}:      {MetricHeartRate, "bpm"},
	{ProducerWithings, "systolic_bp"}:      {MetricBPSys, "mmHg"},
	{ProducerWithings, "diastolic_bp"}:     {MetricBPDia, "mmHg"},
	{ProducerWithings, "spo2"}:             {MetricBloodOxygen, "%"},
	{ProducerWithings, "body_temperature"}: {MetricTemperature, "C"},

	// Garmin
	{ProducerGarmin, "totalSteps"}:         {MetricSteps, "count"},
	{ProducerGarmin, "totalDistanceMeters"}: {MetricDistance, "m"},
	{ProducerGarmin, "activeKilocalories"}: {MetricActiveCalories, "kcal"},
	{ProducerGarmin, "restingHeartRate"}:   {MetricRestingHeartRate, "bpm"},
	{ProducerGarmin, "sleepTimeSeconds"}:   {MetricSleepHours, "s"},
	{ProducerGarmin, "totalElevationGain"}: {MetricElevationGain, "m"},

	// Strava
	{ProducerStrava, "distance"}:             {MetricDistance, "m"},
	{ProducerStrava, "total_elevation_gain"}: {MetricElevationGain, "m"},
	{ProducerStrava, "calories"}:             {MetricActiveCalories, "kcal"},
	{ProducerStrava, "average_heartrate"}:    {MetricHeartRate, "bpm"},

	// MyFitnessPal
	{ProducerMyFitnessPal, "protein"}:       {MetricProtein, "g"},
	{ProducerMyFitnessPal, "carbohydrates"}: {MetricCarbs, "g"},
	{ProducerMyFitnessPal, "fat"}:           {MetricFat, "g"},
	{ProducerMyFitnessPal, "fiber"}:         {MetricFiber, "g"},
	{ProducerMyFitnessPal, "energy"}:        {MetricCaloriesIn, "kcal"},
	{ProducerMyFitnessPal, "water"}:         {MetricWater, "ml"},

	// Manual entry uses canonical identifiers directly
	{ProducerManual, "steps"}:          {MetricSteps, "count"},
	{ProducerManual, "weight"}:         {MetricWeight, "kg"},
	{ProducerManual, "weight_lb"}:      {MetricWeight, "lb"},
	{ProducerManual, "sleep_hours"}:    {MetricSleepHours, "hours"},
	{ProducerManual, "protein_g"}:      {MetricProtein, "g"},
	{ProducerManual, "water_ml"}:       {MetricWater, "ml"},
	{ProducerManual, "mood"}:           {MetricMood, "scale"},
	{ProducerManual, "energy"}:         {MetricEnergy, "scale"},
	{ProducerManual, "stress"}:         {MetricStress, "scale"},
	{ProducerManual, "meditation_min"}: {MetricMeditation, "min"},
}

// LookupMapping resolves a (producer, field) pair. The second return is false
// when the field is not in the producer's vocabulary.
func LookupMapping(producer, field string) (Mapping, bool) {
	m, ok := producerMappings[FieldKey{Producer: producer, Field: field}]
	return m, ok
}
