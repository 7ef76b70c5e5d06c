package rankingengine

import (
	"log/slog"

	httpadapter "bountyboard/contexts/community-experience/ranking-engine/adapters/http"
	"bountyboard/contexts/community-experience/ranking-engine/adapters/memory"
	"bountyboard/contexts/community-experience/ranking-engine/application/commands"
	"bountyboard/contexts/community-experience/ranking-engine/application/queries"
	"bountyboard/contexts/community-experience/ranking-engine/application/workers"
	"bountyboard/contexts/community-experience/ranking-engine/domain/entities"
	"bountyboard/contexts/community-experience/ranking-engine/ports"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
)

type Module struct {
	Handler      httpadapter.Handler
	Events       commands.EventUseCase
	Redemptions  commands.RedemptionUseCase
	Reset        commands.PeriodResetUseCase
	Leaderboard  queries.LeaderboardUseCase
	Profile      queries.ProfileUseCase
	Store        *memory.Store
	SubmissionCG string
	Outbox       ports.OutboxRepository
	Publisher    ports.EventPublisher
	Clock        ports.Clock
	Logger       *slog.Logger
}

type Dependencies struct {
	Repository  ports.Repository
	UnitOfWork  ports.UnitOfWork
	Locker      ports.KeyLocker
	Cache       ports.LeaderboardCache
	Outbox      ports.OutboxRepository
	Publisher   ports.EventPublisher
	Metrics     ports.Metrics
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	events := commands.EventUseCase{
		Repo:       deps.Repository,
		UnitOfWork: deps.UnitOfWork,
		Locker:     deps.Locker,
		Cache:      deps.Cache,
		Metrics:    deps.Metrics,
		Clock:      deps.Clock,
		IDGen:      deps.IDGenerator,
		Achievements: commands.AchievementEvaluator{
			Clock: deps.Clock,
			IDGen: deps.IDGenerator,
		},
		Logger: deps.Logger,
	}
	redemptions := commands.RedemptionUseCase{
		Repo:       deps.Repository,
		UnitOfWork: deps.UnitOfWork,
		Locker:     deps.Locker,
		Cache:      deps.Cache,
		Metrics:    deps.Metrics,
		Clock:      deps.Clock,
		IDGen:      deps.IDGenerator,
		Logger:     deps.Logger,
	}
	reset := commands.PeriodResetUseCase{
		Repo:   deps.Repository,
		Cache:  deps.Cache,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	leaderboard := queries.LeaderboardUseCase{
		Repo:    deps.Repository,
		Cache:   deps.Cache,
		Metrics: deps.Metrics,
		Clock:   deps.Clock,
		Flight:  &singleflight.Group{},
		Logger:  deps.Logger,
	}
	profile := queries.ProfileUseCase{
		Repo:  deps.Repository,
		Clock: deps.Clock,
	}

	return Module{
		Handler: httpadapter.Handler{
			Events:      events,
			Redemptions: redemptions,
			Leaderboard: leaderboard,
			Profile:     profile,
			Validate:    validator.New(validator.WithRequiredStructEnabled()),
			Logger:      deps.Logger,
		},
		Events:      events,
		Redemptions: redemptions,
		Reset:       reset,
		Leaderboard: leaderboard,
		Profile:     profile,
		Outbox:      deps.Outbox,
		Publisher:   deps.Publisher,
		Clock:       deps.Clock,
		Logger:      deps.Logger,
	}
}

// NewInMemoryModule wires the module against a process-local store, keyed
// mutex and no cache.
func NewInMemoryModule(seed []entities.UserRanking, logger *slog.Logger) Module {
	store := memory.NewStore(seed)
	module := NewModule(Dependencies{
		Repository:  store,
		UnitOfWork:  store,
		Outbox:      store,
		Locker:      memory.NewKeyLocker(),
		Clock:       memory.SystemClock{},
		IDGenerator: memory.UUIDGenerator{},
		Logger:      logger,
	})
	module.Store = store
	return module
}

// SubmissionConsumer returns the worker that scores reviewed submissions.
func (m Module) SubmissionConsumer(subscriber ports.EventSubscriber) workers.SubmissionReviewConsumer {
	return workers.SubmissionReviewConsumer{
		Subscriber:    subscriber,
		Events:        m.Events,
		ConsumerGroup: m.SubmissionCG,
		Logger:        m.Logger,
	}
}

func (m Module) PeriodResetJob(period entities.Period) workers.PeriodResetJob {
	return workers.PeriodResetJob{
		Reset:  m.Reset,
		Period: period,
		Logger: m.Logger,
	}
}

// OutboxRelay returns the worker that drains committed events to the bus.
func (m Module) OutboxRelay(batchSize int) workers.OutboxRelay {
	return workers.OutboxRelay{
		Outbox:    m.Outbox,
		Publisher: m.Publisher,
		Clock:     m.Clock,
		BatchSize: batchSize,
		Logger:    m.Logger,
	}
}
