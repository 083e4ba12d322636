package components

import (
	"log/slog"

	"github.com/revenue-ledger/internal/config"
	"github.com/revenue-ledger/internal/domain/customer"
	"github.com/revenue-ledger/internal/domain/deal"
	"github.com/revenue-ledger/internal/domain/movement"
	"github.com/revenue-ledger/internal/domain/organization"
	"github.com/revenue-ledger/internal/domain/outbox"
	"github.com/revenue-ledger/internal/domain/report"
	"github.com/revenue-ledger/internal/domain/subscription"
	"github.com/revenue-ledger/internal/normalizer"
	"github.com/revenue-ledger/internal/sync_processor/service"
)

// Repositories groups the stores the sync path writes to
type Repositories struct {
	Subscriptions subscription.Repository
	Movements     movement.Repository
	Customers     customer.Repository
	Deals         deal.Repository
	Organizations organization.Repository
	Outbox        outbox.Repository
	Reports       report.Repository
}

// CreateProcessingService creates a new ProcessingService with all its dependencies.
// The returned pool is nil when the service fell back to sequential execution.
func CreateProcessingService(
	txRunner service.TxRunner,
	repos Repositories,
	logger *slog.Logger,
	cfg *config.Config,
) (service.ProcessingService, *service.WorkerPoolExecutor) {
	var executor service.GroupExecutor = service.SequentialExecutor{}
	pool, err := service.NewWorkerPoolExecutor(
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool, falling back to sequential execution", "error", err)
		pool = nil
	} else {
		executor = pool
		logger.Info("Created worker pool executor", "pool_size", cfg.WorkerPool.Size)
	}

	processingService := service.NewProcessingService(
		txRunner,
		normalizer.NewNormalizer(),
		NewReconciler(repos.Subscriptions, logger),
		NewMovementClassifier(logger),
		NewLedgerWriter(repos.Subscriptions, repos.Movements, logger),
		NewOutboxManager(repos.Outbox, logger),
		NewCustomerManager(repos.Customers, logger),
		NewDealManager(repos.Deals, logger),
		NewLocationResolver(repos.Organizations, cfg.Snapshot.DefaultLocation(), logger),
		NewReportRecorder(repos.Reports, logger),
		executor,
		logger,
	)

	return processingService, pool
}
