package stats

import "droscher.com/SipGargoyle/pkg/model"

const (
	// CupVolumeCl is the fixed serving size the cup unit maps to. The
	// entered quantity is deliberately ignored for cups: selecting the
	// unit always means exactly one standard serving.
	CupVolumeCl = 25.0

	clPerLiter = 100.0
	mlPerCl    = 10.0

	ethanolDensityGramsPerMl = 0.8
)

// NormalizeVolume converts a quantity/unit pair into centiliters, the
// internal standard volume unit.
func NormalizeVolume(quantity float64, unit model.Unit) float64 {
	switch unit {
	case model.UnitCup:
		return CupVolumeCl
	case model.UnitLiters:
		return quantity * clPerLiter
	case model.UnitCentiliters:
		return quantity
	}

	return quantity
}

// AlcoholGrams converts a normalized volume and a percent-by-volume
// alcohol content into grams of pure alcohol. Every downstream
// computation calls through here; the arithmetic lives nowhere else.
func AlcoholGrams(volumeCl float64, alcoholPercent float64) float64 {
	return volumeCl * mlPerCl * (alcoholPercent / 100) * ethanolDensityGramsPerMl
}

// EntryVolume returns the normalized volume of a single entry.
func EntryVolume(entry model.DrinkEntry) float64 {
	return NormalizeVolume(entry.Quantity, entry.Unit)
}

// EntryAlcoholGrams returns the pure alcohol mass of a single entry.
func EntryAlcoholGrams(entry model.DrinkEntry) float64 {
	return AlcoholGrams(EntryVolume(entry), entry.ABV())
}
