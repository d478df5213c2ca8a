package bootstrap

import (
	"thermasense/contexts/building-comfort/thermostat-engine/application/commands"

	"github.com/shopspring/decimal"
)

// DefaultZoneSeeds are provisioned on every start. Existing zones keep
// their temperatures and only pick up renames.
func DefaultZoneSeeds() []commands.ZoneSeed {
	return []commands.ZoneSeed{
		{ZoneID: "office_a", Name: "办公室A区", InitialTemp: decimal.RequireFromString("24.5")},
		{ZoneID: "library_b", Name: "图书馆B区", InitialTemp: decimal.RequireFromString("26.0")},
		{ZoneID: "classroom_a", Name: "教室A", InitialTemp: decimal.RequireFromString("22.0")},
		{ZoneID: "studio_e", Name: "录音室E", InitialTemp: decimal.RequireFromString("25.0")},
	}
}
