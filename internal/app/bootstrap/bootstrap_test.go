package bootstrap

import (
	"context"
	"testing"

	actuatoradapter "thermasense/contexts/building-comfort/thermostat-engine/adapters/actuator"
	"thermasense/contexts/building-comfort/thermostat-engine/adapters/memory"
	"thermasense/contexts/building-comfort/thermostat-engine/application/commands"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	"thermasense/internal/platform/config"
	"thermasense/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNormalizeAddr(t *testing.T) {
	cases := map[string]string{
		"":       ":8080",
		"  ":     ":8080",
		"9090":   ":9090",
		":7000":  ":7000",
		" 8081 ": ":8081",
	}
	for input, want := range cases {
		if got := normalizeAddr(input); got != want {
			t.Fatalf("normalizeAddr(%q): expected %q, got %q", input, want, got)
		}
	}
}

func TestDefaultZoneSeedsProvisionCleanly(t *testing.T) {
	store := memory.NewStore(nil)
	uc := commands.ProvisionZonesUseCase{Zones: store}

	result, err := uc.ProvisionZones(context.Background(), DefaultZoneSeeds())
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if result.Created != 4 || result.Renamed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}

	zone, err := store.GetZone(context.Background(), "office_a")
	if err != nil {
		t.Fatalf("get zone: %v", err)
	}
	if zone.RecommendedTemp.StringFixed(1) != "24.5" {
		t.Fatalf("expected 24.5, got %s", zone.RecommendedTemp.StringFixed(1))
	}
	if zone.Name != "办公室A区" {
		t.Fatalf("expected seeded display name, got %q", zone.Name)
	}

	again, err := uc.ProvisionZones(context.Background(), DefaultZoneSeeds())
	if err != nil {
		t.Fatalf("second provision: %v", err)
	}
	if again.Created != 0 || again.Renamed != 0 {
		t.Fatalf("expected idempotent provisioning, got %+v", again)
	}
}

func TestBuildActuatorSelectsKind(t *testing.T) {
	observer := metrics.New(prometheus.NewRegistry())

	logging, err := buildActuator(config.Config{ActuatorKind: "logging"}, observer, nil)
	if err != nil {
		t.Fatalf("logging actuator: %v", err)
	}
	if _, ok := logging.(*actuatoradapter.LoggingActuator); !ok {
		t.Fatalf("expected logging actuator, got %T", logging)
	}

	remote, err := buildActuator(config.Config{ActuatorKind: "http", ActuatorURL: "http://hvac.local"}, observer, nil)
	if err != nil {
		t.Fatalf("http actuator: %v", err)
	}
	if _, ok := remote.(*actuatoradapter.HTTPActuator); !ok {
		t.Fatalf("expected http actuator, got %T", remote)
	}

	if _, err := buildActuator(config.Config{ActuatorKind: "http"}, observer, nil); err == nil {
		t.Fatal("expected missing url error")
	}
	if _, err := buildActuator(config.Config{ActuatorKind: "modbus"}, observer, nil); err == nil {
		t.Fatal("expected unknown kind error")
	}
}

func TestDefaultZoneSeedsKeepExistingDisplayNames(t *testing.T) {
	store := memory.NewStore(nil)
	ctx := context.Background()
	for _, seed := range DefaultZoneSeeds() {
		if err := store.CreateZone(ctx, entities.NewZone(seed.ZoneID, seed.Name, seed.InitialTemp)); err != nil {
			t.Fatalf("create %s: %v", seed.ZoneID, err)
		}
	}

	uc := commands.ProvisionZonesUseCase{Zones: store}
	result, err := uc.ProvisionZones(ctx, DefaultZoneSeeds())
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if result.Renamed != 0 {
		t.Fatalf("expected no renames of provisioned zones, got %+v", result)
	}

	want := map[string]string{
		"office_a":    "办公室A区",
		"library_b":   "图书馆B区",
		"classroom_a": "教室A",
		"studio_e":    "录音室E",
	}
	for id, name := range want {
		zone, err := store.GetZone(ctx, id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if zone.Name != name {
			t.Fatalf("zone %s: expected %q, got %q", id, name, zone.Name)
		}
	}
}
