package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"thermasense/contexts/building-comfort/thermostat-engine/application/commands"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	zones    []entities.Zone
	results  []entities.CycleResult
	err      error
	cycled   []string
	seeded   int
	migrated int
	closed   bool
	closeErr error
}

func (f *fakeEngine) Migrate(context.Context) error {
	f.migrated++
	return f.err
}

func (f *fakeEngine) ListZones(context.Context) ([]entities.Zone, error) {
	return f.zones, f.err
}

func (f *fakeEngine) SeedZones(context.Context) (commands.ProvisionResult, error) {
	f.seeded++
	return commands.ProvisionResult{Created: 2, Renamed: 1}, f.err
}

func (f *fakeEngine) RunCycle(_ context.Context, zoneID string) (entities.CycleResult, error) {
	f.cycled = append(f.cycled, zoneID)
	if f.err != nil {
		return entities.CycleResult{}, f.err
	}
	return f.results[0], nil
}

func (f *fakeEngine) RunAllCycles(context.Context) ([]entities.CycleResult, error) {
	return f.results, f.err
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return f.closeErr
}

func execute(t *testing.T, fake *fakeEngine, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd(func(context.Context) (engine, error) { return fake, nil })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func committed(zoneID string) entities.CycleResult {
	return entities.CycleResult{
		ZoneID:              zoneID,
		Status:              entities.CycleStatusCommitted,
		VoteCount:           3,
		PreviousRecommended: decimal.RequireFromString("24.0"),
		Recommended:         decimal.RequireFromString("24.5"),
		Actuated:            true,
	}
}

func TestCycleCommandPrintsResult(t *testing.T) {
	fake := &fakeEngine{results: []entities.CycleResult{committed("office_a")}}

	out, err := execute(t, fake, "cycle", "office_a")
	require.NoError(t, err)
	assert.Equal(t, []string{"office_a"}, fake.cycled)
	assert.Contains(t, out, "office_a")
	assert.Contains(t, out, "committed")
	assert.Contains(t, out, "24.5")
	assert.True(t, fake.closed)
}

func TestCycleCommandRequiresZone(t *testing.T) {
	fake := &fakeEngine{}
	_, err := execute(t, fake, "cycle")
	require.Error(t, err)
	assert.Empty(t, fake.cycled)
}

func TestSweepPrintsPartialResultsAndReturnsError(t *testing.T) {
	fake := &fakeEngine{
		results: []entities.CycleResult{committed("office_a")},
		err:     errors.New("zone library_b: boom"),
	}

	out, err := execute(t, fake, "sweep")
	require.EqualError(t, err, "zone library_b: boom")
	assert.Contains(t, out, "office_a")
	assert.True(t, fake.closed)
}

func TestZonesListAndSeed(t *testing.T) {
	fake := &fakeEngine{zones: []entities.Zone{
		entities.NewZone("office_a", "Office A", decimal.RequireFromString("24.5")),
	}}

	out, err := execute(t, fake, "zones", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Office A")
	assert.Contains(t, out, "24.5")

	out, err = execute(t, fake, "zones", "seed")
	require.NoError(t, err)
	assert.Equal(t, "created 2, renamed 1\n", out)
	assert.Equal(t, 1, fake.seeded)
}

func TestCloseErrorSurfaces(t *testing.T) {
	fake := &fakeEngine{closeErr: errors.New("pool busy")}
	_, err := execute(t, fake, "zones", "list")
	require.EqualError(t, err, "pool busy")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, &fakeEngine{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "thermactl version 1.0.0\n", out)
}

func TestMigrate(t *testing.T) {
	fake := &fakeEngine{}
	out, err := execute(t, fake, "migrate")
	require.NoError(t, err)
	assert.Equal(t, "schema up to date\n", out)
	assert.Equal(t, 1, fake.migrated)
}
