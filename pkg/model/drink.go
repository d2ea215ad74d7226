package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Unit is the volume unit a drink quantity was entered in.
type Unit string

const (
	// UnitCentiliters is the internal standard volume unit.
	UnitCentiliters Unit = "cl"
	UnitLiters      Unit = "l"
	// UnitCup always stands for one fixed-size serving; the numeric
	// quantity on the entry is ignored for it.
	UnitCup Unit = "cup"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Category struct {
	gorm.Model
	Name string `gorm:"uniqueIndex"`

	// DrinkCount is derived from the entries referencing this category,
	// never stored.
	DrinkCount int64 `gorm:"->;-:migration"`
}

type DrinkEntry struct {
	gorm.Model
	UUID           uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Name           string
	CategoryID     uint
	Quantity       float64
	Unit           Unit
	AlcoholContent *float64
	Date           string // local calendar date, DateLayout
	Time           string // local clock time, TimeLayout, minute precision
	Latitude       *float64
	Longitude      *float64
	Accuracy       *float64
	Address        *string
	Barcode        *string

	Category Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
}

// ConsumedAt combines Date and Time into the entry's single ordering key.
func (d *DrinkEntry) ConsumedAt() (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, d.Date+" "+d.Time, time.Local)
}

// ABV returns the alcohol content in percent by volume, treating an
// absent value as zero.
func (d *DrinkEntry) ABV() float64 {
	if d.AlcoholContent == nil {
		return 0
	}

	return *d.AlcoholContent
}

// HasCoordinates reports whether the entry carries a geotag.
func (d *DrinkEntry) HasCoordinates() bool {
	return d.Latitude != nil && d.Longitude != nil
}
