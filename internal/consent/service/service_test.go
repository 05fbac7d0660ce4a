package service

// Unit tests for the consent manager. These focus on invariants, error
// propagation, and boundary mapping; end-to-end decision flows are covered by
// session_test.go against the in-memory store.

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"physioflow/internal/consent/models"
	"physioflow/internal/consent/service/mocks"
	"physioflow/internal/consent/store"
	dErrors "physioflow/pkg/domain-errors"
)

type ManagerSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockStore
	manager   *Manager
}

func (s *ManagerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.manager = NewManager(
		s.mockStore,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC) }),
	)
}

func (s *ManagerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestManagerSuite(t *testing.T) {
	suite.Run(t, new(ManagerSuite))
}

func (s *ManagerSuite) TestDecide_ValidationErrors() {
	s.T().Run("missing clientID returns CodeUnauthorized", func(t *testing.T) {
		_, err := s.manager.Decide(context.Background(), "", models.AcceptAllFlags(), models.ActionAcceptAll)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.T().Run("invalid action returns CodeBadRequest", func(t *testing.T) {
		_, err := s.manager.Decide(context.Background(), "client-1", models.AcceptAllFlags(), models.Action("shrug"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ManagerSuite) TestDecide_StoreErrorPropagation() {
	s.mockStore.EXPECT().
		Load(gomock.Any(), "client-1").
		Return(nil, store.ErrNotFound)
	s.mockStore.EXPECT().
		Save(gomock.Any(), "client-1", gomock.Any()).
		Return(assert.AnError)

	_, err := s.manager.Decide(context.Background(), "client-1", models.AcceptAllFlags(), models.ActionAcceptAll)
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInternal), "store failures surface as CodeInternal")
}

func (s *ManagerSuite) TestDecide_ForcesNecessaryInStoredRecord() {
	var saved *models.Record
	s.mockStore.EXPECT().
		Load(gomock.Any(), "client-1").
		Return(nil, store.ErrNotFound)
	s.mockStore.EXPECT().
		Save(gomock.Any(), "client-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, record *models.Record) error {
			saved = record
			return nil
		})

	record, err := s.manager.Decide(context.Background(), "client-1", models.CategoryFlags{Necessary: false, Analytics: true}, models.ActionCustom)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), saved)
	assert.True(s.T(), saved.Preferences.Necessary, "necessary is forced before the write")
	assert.Equal(s.T(), saved, record)
	assert.Equal(s.T(), models.RecordVersion, saved.Version)
}

func (s *ManagerSuite) TestCurrent_DegradesOnUnreadableStore() {
	s.mockStore.EXPECT().
		Load(gomock.Any(), "client-1").
		Return(nil, assert.AnError)

	record, err := s.manager.Current(context.Background(), "client-1")
	require.NoError(s.T(), err, "read failures degrade to the undecided state")
	assert.Nil(s.T(), record)
}

func (s *ManagerSuite) TestCurrent_RequiresClientID() {
	_, err := s.manager.Current(context.Background(), "")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ManagerSuite) TestClear_StoreErrorPropagation() {
	s.mockStore.EXPECT().
		Load(gomock.Any(), "client-1").
		Return(nil, store.ErrNotFound)
	s.mockStore.EXPECT().
		Clear(gomock.Any(), "client-1").
		Return(assert.AnError)

	err := s.manager.Clear(context.Background(), "client-1")
	require.Error(s.T(), err)
	assert.True(s.T(), dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ManagerSuite) TestOpen_UndecidedOnAbsentRecord() {
	s.mockStore.EXPECT().
		Load(gomock.Any(), "client-1").
		Return(nil, store.ErrNotFound)

	session, err := s.manager.Open(context.Background(), "client-1")
	require.NoError(s.T(), err)
	assert.False(s.T(), session.HasConsent())
	assert.Nil(s.T(), session.Preferences())
	assert.False(s.T(), session.IsAnalyticsAllowed())
}
