package thermostatengine

import (
	"log/slog"

	actuatoradapter "thermasense/contexts/building-comfort/thermostat-engine/adapters/actuator"
	httpadapter "thermasense/contexts/building-comfort/thermostat-engine/adapters/http"
	"thermasense/contexts/building-comfort/thermostat-engine/adapters/memory"
	"thermasense/contexts/building-comfort/thermostat-engine/application/commands"
	"thermasense/contexts/building-comfort/thermostat-engine/application/queries"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/entities"
	"thermasense/contexts/building-comfort/thermostat-engine/domain/services"
	"thermasense/contexts/building-comfort/thermostat-engine/ports"
)

type Module struct {
	Handler     httpadapter.Handler
	Cycles      commands.RecommendationCycle
	Provisioner commands.ProvisionZonesUseCase

	// Set by NewInMemoryModule only.
	Store    *memory.Store
	Actuator *actuatoradapter.LoggingActuator
}

type Dependencies struct {
	Zones        ports.ZoneRepository
	Votes        ports.VoteRepository
	Users        ports.UserRepository
	History      ports.HistoryRepository
	Writer       ports.RecommendationWriter
	Actuator     ports.Actuator
	Dispatcher   ports.CycleDispatcher
	Observer     ports.CycleObserver
	VoteObserver ports.VoteObserver
	Clock        ports.Clock
	IDGen        ports.IDGenerator
	Policy       services.Policy
	Logger       *slog.Logger
}

func NewModule(deps Dependencies) Module {
	cycles := commands.RecommendationCycle{
		Zones:    deps.Zones,
		Votes:    deps.Votes,
		Users:    deps.Users,
		Writer:   deps.Writer,
		Actuator: deps.Actuator,
		Observer: deps.Observer,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Policy:   deps.Policy,
		Logger:   deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Votes: commands.VoteUseCase{
				Zones:      deps.Zones,
				Votes:      deps.Votes,
				Users:      deps.Users,
				Dispatcher: deps.Dispatcher,
				Observer:   deps.VoteObserver,
				Clock:      deps.Clock,
				IDGen:      deps.IDGen,
				Logger:     deps.Logger,
			},
			Cycles: cycles,
			Queries: queries.ZoneQueries{
				Zones:      deps.Zones,
				Votes:      deps.Votes,
				History:    deps.History,
				Clock:      deps.Clock,
				VoteWindow: deps.Policy.VoteWindow,
			},
			VoteWindow: deps.Policy.VoteWindow,
			Logger:     deps.Logger,
		},
		Cycles: cycles,
		Provisioner: commands.ProvisionZonesUseCase{
			Zones:  deps.Zones,
			Logger: deps.Logger,
		},
	}
}

// NewInMemoryModule wires the engine to the memory store and a logging
// actuator with the default policy. Cycles are not dispatched after votes;
// callers drive them through Module.Cycles.
func NewInMemoryModule(seed []entities.Zone, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	actuator := actuatoradapter.NewLoggingActuator(logger)
	module := NewModule(Dependencies{
		Zones:    store,
		Votes:    store,
		Users:    store,
		History:  store,
		Writer:   store,
		Actuator: actuator,
		Clock:    store,
		IDGen:    store,
		Policy:   services.DefaultPolicy(),
		Logger:   logger,
	})
	module.Store = store
	module.Actuator = actuator
	return module
}
