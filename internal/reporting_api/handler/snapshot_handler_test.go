package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/revenue-ledger/internal/domain/shared"
	"github.com/revenue-ledger/internal/domain/snapshot"
	"github.com/revenue-ledger/internal/reporting_api/service"
)

var handlerNow = time.Date(2024, time.March, 15, 18, 0, 0, 0, time.UTC)

func newSnapshotRouter(svc *MockReportingService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewSnapshotHandler(newTestLogger(), svc)
	h.now = func() time.Time { return handlerNow }
	org := router.Group("/organizations/:id")
	org.GET("/mrr-snapshots", h.ListMrr)
	org.GET("/mrr-snapshots/:date", h.GetMrr)
	org.GET("/pipeline-snapshots", h.ListPipeline)
	org.GET("/ledger-check", h.LedgerCheck)
	return router
}

func TestSnapshotHandler_ListMrr(t *testing.T) {
	orgID := uuid.New()
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }

	t.Run("ChurnRateIsDerived", func(t *testing.T) {
		svc := new(MockReportingService)
		svc.On("ListMrrSnapshots", mock.Anything, orgID, day(1), day(14)).Return([]*snapshot.MrrSnapshot{
			{OrganizationID: orgID, SnapshotDate: day(14), TotalMrr: 90000, TotalCustomers: 9, ChurnMrr: 10000, NewMrr: 3000},
		}, nil).Once()

		req, _ := http.NewRequest(http.MethodGet, "/organizations/"+orgID.String()+"/mrr-snapshots?from=2024-03-01&to=2024-03-14", nil)
		rr := httptest.NewRecorder()
		newSnapshotRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var body PageResponse[MrrSnapshotResponse]
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, "2024-03-14", body.Data[0].SnapshotDate)
		assert.InDelta(t, 10.0, body.Data[0].ChurnRate, 1e-9)
		assert.Equal(t, int64(-7000), body.Data[0].NetNewMrr)
		svc.AssertExpectations(t)
	})

	t.Run("DefaultRange", func(t *testing.T) {
		svc := new(MockReportingService)
		svc.On("ListMrrSnapshots", mock.Anything, orgID, time.Date(2024, time.February, 14, 0, 0, 0, 0, time.UTC), day(15)).
			Return([]*snapshot.MrrSnapshot{}, nil).Once()

		req, _ := http.NewRequest(http.MethodGet, "/organizations/"+orgID.String()+"/mrr-snapshots", nil)
		rr := httptest.NewRecorder()
		newSnapshotRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("InvertedRange", func(t *testing.T) {
		svc := new(MockReportingService)
		req, _ := http.NewRequest(http.MethodGet, "/organizations/"+orgID.String()+"/mrr-snapshots?from=2024-03-10&to=2024-03-01", nil)
		rr := httptest.NewRecorder()
		newSnapshotRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSnapshotHandler_GetMrr(t *testing.T) {
	orgID := uuid.New()
	day := time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		svc := new(MockReportingService)
		svc.On("GetMrrSnapshot", mock.Anything, orgID, day).
			Return(&snapshot.MrrSnapshot{OrganizationID: orgID, SnapshotDate: day, TotalMrr: 50000}, nil).Once()

		req, _ := http.NewRequest(http.MethodGet, "/organizations/"+orgID.String()+"/mrr-snapshots/2024-03-14", nil)
		rr := httptest.NewRecorder()
		newSnapshotRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Data MrrSnapshotResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, int64(50000), body.Data.TotalMrr)
		assert.Equal(t, float64(0), body.Data.ChurnRate)
	})

	t.Run("NotFound", func(t *testing.T) {
		svc := new(MockReportingService)
		svc.On("GetMrrSnapshot", mock.Anything, orgID, day).Return(nil, snapshot.ErrSnapshotNotFound).Once()

		req, _ := http.NewRequest(http.MethodGet, "/organizations/"+orgID.String()+"/mrr-snapshots/2024-03-14", nil)
		rr := httptest.NewRecorder()
		newSnapshotRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("InvalidDate", func(t *testing.T) {
		svc := new(MockReportingService)
		req, _ := http.NewRequest(http.MethodGet, "/organizations/"+orgID.String()+"/mrr-snapshots/yesterday", nil)
		rr := httptest.NewRecorder()
		newSnapshotRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "GetMrrSnapshot", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSnapshotHandler_ListPipeline(t *testing.T) {
	orgID := uuid.New()
	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC)

	svc := new(MockReportingService)
	svc.On("ListPipelineSnapshots", mock.Anything, orgID, from, to).Return([]*snapshot.PipelineSnapshot{
		{SnapshotDate: from, TotalValue: 20000, WeightedValue: 2000, DealCount: 1},
	}, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/organizations/"+orgID.String()+"/pipeline-snapshots?from=2024-03-01&to=2024-03-02", nil)
	rr := httptest.NewRecorder()
	newSnapshotRouter(svc).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var body PageResponse[PipelineSnapshotResponse]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, PipelineSnapshotResponse{SnapshotDate: "2024-03-01", TotalValue: 20000, WeightedValue: 2000, DealCount: 1}, body.Data[0])
}

func TestSnapshotHandler_LedgerCheck(t *testing.T) {
	orgID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		svc := new(MockReportingService)
		svc.On("CheckLedger", mock.Anything, orgID).Return(&service.LedgerCheck{
			OrganizationID: orgID,
			CheckedAt:      handlerNow,
			LedgerMrr:      10000,
			LiveMrr:        15000,
			Difference:     5000,
		}, nil).Once()

		req, _ := http.NewRequest(http.MethodGet, "/organizations/"+orgID.String()+"/ledger-check", nil)
		rr := httptest.NewRecorder()
		newSnapshotRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Data service.LedgerCheck `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, int64(5000), body.Data.Difference)
		assert.False(t, body.Data.Consistent)
	})

	t.Run("StoreUnavailable", func(t *testing.T) {
		svc := new(MockReportingService)
		svc.On("CheckLedger", mock.Anything, orgID).Return(nil, shared.StoreUnavailable("sum movement deltas", errors.New("timeout"))).Once()

		req, _ := http.NewRequest(http.MethodGet, "/organizations/"+orgID.String()+"/ledger-check", nil)
		rr := httptest.NewRecorder()
		newSnapshotRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
