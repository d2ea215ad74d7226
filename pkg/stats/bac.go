package stats

import (
	"time"

	"droscher.com/SipGargoyle/pkg/model"
)

// Sex selects the Widmark distribution coefficient. It is user-supplied
// configuration, never inferred.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// Profile carries the physiological inputs of the BAC model.
type Profile struct {
	WeightKg float64
	Sex      Sex
}

const (
	// EliminationRate is the linear blood alcohol elimination rate in
	// grams per liter per hour.
	EliminationRate = 0.15

	// DefaultLookback bounds how far back drinks can still contribute
	// to the current concentration.
	DefaultLookback = 24 * time.Hour

	// DefaultLegalLimitMgL is a jurisdiction constant, configurable by
	// the caller and never baked into the estimation itself.
	DefaultLegalLimitMgL = 500.0

	distributionMale   = 0.68
	distributionFemale = 0.55

	mgPerGram = 1000.0
)

// BACSnapshot is the estimated blood alcohol state at one instant.
// Available is false when the profile is incomplete; the numeric fields
// are then meaningless and the caller owns the user-facing messaging.
type BACSnapshot struct {
	Available        bool
	CurrentMgL       float64
	TimeToSoberHours float64
	TimeToLegalHours float64
	RelevantDrinks   []model.DrinkEntry
}

// BACPoint is one sample of a historical concentration trajectory.
type BACPoint struct {
	At  time.Time `json:"at"`
	MgL float64   `json:"mgL"`
}

// Estimator computes blood alcohol concentrations with a per-drink
// linear elimination model.
type Estimator struct {
	lookback   time.Duration
	legalLimit float64 // mg/L
}

func NewEstimator(lookback time.Duration, legalLimitMgL float64) *Estimator {
	if lookback <= 0 {
		lookback = DefaultLookback
	}

	if legalLimitMgL <= 0 {
		legalLimitMgL = DefaultLegalLimitMgL
	}

	return &Estimator{lookback: lookback, legalLimit: legalLimitMgL}
}

// Lookback reports how far back drinks can still contribute.
func (e *Estimator) Lookback() time.Duration {
	return e.lookback
}

// Snapshot estimates the concentration at the given instant. Each drink
// inside the lookback window contributes its Widmark peak, eliminated
// linearly and independently since its own consumption time.
func (e *Estimator) Snapshot(entries []model.DrinkEntry, profile *Profile, at time.Time) BACSnapshot {
	coefficient, ok := distributionCoefficient(profile)
	if !ok {
		return BACSnapshot{}
	}

	snapshot := BACSnapshot{Available: true}
	timed, _ := Chronological(entries)

	var totalGramsPerLiter float64

	for _, entry := range timed {
		elapsed := at.Sub(entry.At)
		if elapsed < 0 || elapsed > e.lookback {
			continue
		}

		snapshot.RelevantDrinks = append(snapshot.RelevantDrinks, entry.DrinkEntry)

		peak := EntryAlcoholGrams(entry.DrinkEntry) / (profile.WeightKg * coefficient)

		if remaining := peak - EliminationRate*elapsed.Hours(); remaining > 0 {
			totalGramsPerLiter += remaining
		}
	}

	snapshot.CurrentMgL = totalGramsPerLiter * mgPerGram
	snapshot.TimeToSoberHours = TimeToTarget(totalGramsPerLiter, 0)
	snapshot.TimeToLegalHours = TimeToTarget(totalGramsPerLiter, e.legalLimit/mgPerGram)

	return snapshot
}

// Trajectory samples the estimated concentration at fixed steps between
// two instants, for charting the decay curve.
func (e *Estimator) Trajectory(entries []model.DrinkEntry, profile *Profile, from time.Time, to time.Time, step time.Duration) []BACPoint {
	if step <= 0 || to.Before(from) {
		return nil
	}

	if _, ok := distributionCoefficient(profile); !ok {
		return nil
	}

	var points []BACPoint

	for at := from; !at.After(to); at = at.Add(step) {
		points = append(points, BACPoint{At: at, MgL: e.Snapshot(entries, profile, at).CurrentMgL})
	}

	return points
}

// TimeToTarget returns the hours until the concentration decays to the
// target, both in grams per liter; zero when already at or below it.
func TimeToTarget(currentGramsPerLiter float64, targetGramsPerLiter float64) float64 {
	if currentGramsPerLiter <= targetGramsPerLiter {
		return 0
	}

	return (currentGramsPerLiter - targetGramsPerLiter) / EliminationRate
}

func distributionCoefficient(profile *Profile) (float64, bool) {
	if profile == nil || profile.WeightKg <= 0 {
		return 0, false
	}

	switch profile.Sex {
	case SexMale:
		return distributionMale, true
	case SexFemale:
		return distributionFemale, true
	}

	return 0, false
}
