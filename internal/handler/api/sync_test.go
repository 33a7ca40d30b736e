//go:build unit

package api_test

import (
	"net/http"
	"testing"
	"time"

	"ticketgate/internal/engine/reconcile"
	"ticketgate/internal/handler/api"
	resdto "ticketgate/internal/handler/dto/response"
	"ticketgate/internal/pkg/errs"
	"ticketgate/internal/usecase/commands"
	"ticketgate/tests/common/httptest"
	commandsmock "ticketgate/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type SyncHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockSyncCommands
	handler      *api.SyncHandler
}

func (s *SyncHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockSyncCommands(s.mockCtrl)
	s.handler = api.NewSyncHandler(s.mockCommands)

	s.router.POST("/api/sync", s.handler.SyncNow)
	s.router.GET("/api/sync/status", s.handler.Status)
}

func (s *SyncHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestSyncHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(SyncHandlerTestSuite))
}

func (s *SyncHandlerTestSuite) TestSyncNow() {
	s.Run("returns the drain report", func() {
		winner := uuid.New()
		winnerAt := time.Date(2025, 6, 2, 18, 45, 0, 0, time.UTC)
		s.mockCommands.EXPECT().SyncNow(gomock.Any()).Return(&reconcile.Report{
			Applied: 2,
			Conflicts: []reconcile.ConflictReport{{
				TicketCode:        "TKT-AAAA2222",
				IdempotencyKey:    uuid.New(),
				LocalDeviceID:     uuid.New(),
				LocalRequestedAt:  winnerAt.Add(time.Minute),
				WinnerDeviceID:    &winner,
				WinnerCheckedInAt: &winnerAt,
			}},
			Refreshed: true,
		}, nil)

		w := httptest.PerformRequest(s.T(), s.router, "POST", "/api/sync", nil, "")

		var resp resdto.SyncReportResponse
		httptest.AssertSuccessResponse(s.T(), w, http.StatusOK, &resp)
		s.Equal(2, resp.Applied)
		s.Require().Len(resp.Conflicts, 1)
		s.Equal("TKT-AAAA2222", resp.Conflicts[0].TicketCode)
		s.True(resp.Refreshed)
	})

	s.Run("offline device is a conflict status", func() {
		s.mockCommands.EXPECT().SyncNow(gomock.Any()).Return(nil, errs.ErrDeviceOffline)

		w := httptest.PerformRequest(s.T(), s.router, "POST", "/api/sync", nil, "")
		httptest.AssertErrorResponse(s.T(), w, http.StatusConflict, "Device is offline")
	})

	s.Run("overlapping drain is a conflict status", func() {
		s.mockCommands.EXPECT().SyncNow(gomock.Any()).Return(nil, errs.ErrSyncInProgress)

		w := httptest.PerformRequest(s.T(), s.router, "POST", "/api/sync", nil, "")
		httptest.AssertErrorResponse(s.T(), w, http.StatusConflict, "Sync already in progress")
	})

	s.Run("unexpected failure", func() {
		s.mockCommands.EXPECT().SyncNow(gomock.Any()).Return(nil, errs.New("kv store corrupted"))

		w := httptest.PerformRequest(s.T(), s.router, "POST", "/api/sync", nil, "")
		httptest.AssertErrorResponse(s.T(), w, http.StatusInternalServerError, "Internal server error")
	})
}

func (s *SyncHandlerTestSuite) TestStatus() {
	refreshedAt := time.Date(2025, 6, 2, 17, 0, 0, 0, time.UTC)
	s.mockCommands.EXPECT().Status().Return(commands.SyncStatus{
		Pending:         3,
		LastRefreshedAt: refreshedAt,
		Online:          false,
	})

	w := httptest.PerformRequest(s.T(), s.router, "GET", "/api/sync/status", nil, "")

	var resp resdto.SyncStatusResponse
	httptest.AssertSuccessResponse(s.T(), w, http.StatusOK, &resp)
	s.Equal(3, resp.Pending)
	s.False(resp.Online)
	s.True(resp.LastRefreshedAt.Equal(refreshedAt))
}
