package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// TemperaturePlaces is the precision every stored temperature is kept at.
const TemperaturePlaces int32 = 1

type Zone struct {
	ZoneID          string
	Name            string
	CurrentTemp     decimal.Decimal
	RecommendedTemp decimal.Decimal
}

// NewZone provisions a zone whose simulated reading starts at its setpoint.
func NewZone(zoneID string, name string, initial decimal.Decimal) Zone {
	temp := initial.Round(TemperaturePlaces)
	return Zone{
		ZoneID:          zoneID,
		Name:            name,
		CurrentTemp:     temp,
		RecommendedTemp: temp,
	}
}

type HistoryRecord struct {
	ID              int64
	ZoneID          string
	CurrentTemp     decimal.Decimal
	RecommendedTemp decimal.Decimal
	Timestamp       time.Time
}
