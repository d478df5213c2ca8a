package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "thermasense/contexts/building-comfort/thermostat-engine/application"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	domainerrors "thermasense/contexts/building-comfort/thermostat-engine/domain/errors"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"

	"github.com/shopspring/decimal"
)

type ZoneSeed struct {
	ZoneID      string
	Name        string
	InitialTemp decimal.Decimal
}

type ProvisionResult struct {
	Created int
	Renamed int
}

// ProvisionZonesUseCase creates missing zones and keeps display names in sync.
// Temperatures of existing zones are never touched.
type ProvisionZonesUseCase struct {
	Zones  ports.ZoneRepository
	Logger *slog.Logger
}

func (uc ProvisionZonesUseCase) ProvisionZones(ctx context.Context, seeds []ZoneSeed) (ProvisionResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	var result ProvisionResult
	for _, seed := range seeds {
		zoneID := strings.TrimSpace(seed.ZoneID)
		name := strings.TrimSpace(seed.Name)
		if zoneID == "" || name == "" {
			return result, domainerrors.ErrInvalidZoneInput
		}

		existing, err := uc.Zones.GetZone(ctx, zoneID)
		switch {
		case errors.Is(err, domainerrors.ErrZoneNotFound):
			if err := uc.Zones.CreateZone(ctx, entities.NewZone(zoneID, name, seed.InitialTemp)); err != nil {
				return result, err
			}
			result.Created++
			logger.Info("zone provisioned",
				"event", "thermostat_zone_created",
				"module", moduleName,
				"layer", "application",
				"zone_id", zoneID,
				"initial_temp", seed.InitialTemp.StringFixed(entities.TemperaturePlaces),
			)
		case err != nil:
			return result, err
		case existing.Name != name:
			if err := uc.Zones.RenameZone(ctx, zoneID, name); err != nil {
				return result, err
			}
			result.Renamed++
			logger.Info("zone renamed",
				"event", "thermostat_zone_renamed",
				"module", moduleName,
				"layer", "application",
				"zone_id", zoneID,
				"name", name,
			)
		}
	}
	return result, nil
}
