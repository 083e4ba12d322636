package reporting_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/revenue-ledger/internal/reporting_api/handler"
	"github.com/revenue-ledger/internal/reporting_api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	movementHandler *handler.MovementHandler,
	snapshotHandler *handler.SnapshotHandler,
	runReportHandler *handler.RunReportHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Per-organization reads
		orgs := v1.Group("/organizations/:id")
		{
			orgs.GET("/movements", movementHandler.List)
			orgs.GET("/mrr-snapshots", snapshotHandler.ListMrr)
			orgs.GET("/mrr-snapshots/:date", snapshotHandler.GetMrr)
			orgs.GET("/pipeline-snapshots", snapshotHandler.ListPipeline)
			orgs.GET("/ledger-check", snapshotHandler.LedgerCheck)
			orgs.GET("/sync-reports", runReportHandler.ListSyncReports)
		}

		v1.GET("/snapshot-runs", runReportHandler.ListSnapshotRuns)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
