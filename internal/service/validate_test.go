package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"feed_poller/internal/domain"
	"feed_poller/internal/service/mocks"
)

type ValidateServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	feeds    *mocks.MockFeedStore
	checker  *mocks.MockFeedChecker
	statuses *mocks.MockStatusStore

	service *ValidateService
}

func (s *ValidateServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.feeds = mocks.NewMockFeedStore(s.ctrl)
	s.checker = mocks.NewMockFeedChecker(s.ctrl)
	s.statuses = mocks.NewMockStatusStore(s.ctrl)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	tracker := NewTracker(s.statuses, s.feeds, logger)
	s.service = NewValidateService(s.feeds, s.checker, tracker, 0, logger)
}

func (s *ValidateServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestValidateServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ValidateServiceTestSuite))
}

func (s *ValidateServiceTestSuite) TestValidFeedRecordsSuccess() {
	ctx := context.Background()
	f := &domain.Feed{ID: 1, Name: "Good", URL: "https://good.example.com/feed"}

	s.checker.EXPECT().Validate(ctx, f.URL).Return(domain.ValidationResult{Valid: true})

	s.feeds.EXPECT().Exists(gomock.Any(), f.ID).Return(true, nil)
	s.statuses.EXPECT().Get(gomock.Any(), f.ID).Return(nil, nil)
	s.statuses.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, status *domain.FeedStatus) error {
			s.Equal(domain.StatusOK, status.Status)
			return nil
		},
	)

	result := s.service.ValidateFeed(ctx, f)

	s.True(result.Valid)
}

func (s *ValidateServiceTestSuite) TestInvalidFeedRecordsFailureWithMessage() {
	ctx := context.Background()
	f := &domain.Feed{ID: 2, Name: "Bad", URL: "https://bad.example.com/feed"}

	s.checker.EXPECT().Validate(ctx, f.URL).Return(domain.ValidationResult{
		Valid:   false,
		Message: "Not a valid RSS, Atom, or RDF feed",
	})

	s.feeds.EXPECT().Exists(gomock.Any(), f.ID).Return(true, nil)
	s.statuses.EXPECT().Get(gomock.Any(), f.ID).Return(nil, nil)
	s.statuses.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, status *domain.FeedStatus) error {
			s.Equal(domain.StatusError, status.Status)
			s.Equal("Not a valid RSS, Atom, or RDF feed", status.ErrorMessage)
			return nil
		},
	)

	result := s.service.ValidateFeed(ctx, f)

	s.False(result.Valid)
}

func (s *ValidateServiceTestSuite) TestWarningResultStillCountsAsValid() {
	ctx := context.Background()
	f := &domain.Feed{ID: 3, Name: "Empty", URL: "https://empty.example.com/feed"}

	s.checker.EXPECT().Validate(ctx, f.URL).Return(domain.ValidationResult{
		Valid:   true,
		Message: "Warning: Feed has no items",
	})

	s.feeds.EXPECT().Exists(gomock.Any(), f.ID).Return(true, nil)
	s.statuses.EXPECT().Get(gomock.Any(), f.ID).Return(nil, nil)
	s.statuses.EXPECT().Upsert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, status *domain.FeedStatus) error {
			s.Equal(domain.StatusOK, status.Status)
			s.Empty(status.ErrorMessage)
			return nil
		},
	)

	result := s.service.ValidateFeed(ctx, f)

	s.True(result.Valid)
	s.Equal("Warning: Feed has no items", result.Message)
}

func (s *ValidateServiceTestSuite) TestRunDoesNotPauseAfterLastFeed() {
	ctx := context.Background()
	feeds := []domain.Feed{{ID: 1, Name: "Only", URL: "https://only.example.com/feed"}}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	tracker := NewTracker(s.statuses, s.feeds, logger)
	service := NewValidateService(s.feeds, s.checker, tracker, time.Hour, logger)

	s.feeds.EXPECT().List(gomock.Any()).Return(feeds, nil)
	s.checker.EXPECT().Validate(gomock.Any(), feeds[0].URL).Return(domain.ValidationResult{Valid: true})
	s.feeds.EXPECT().Exists(gomock.Any(), feeds[0].ID).Return(true, nil)
	s.statuses.EXPECT().Get(gomock.Any(), feeds[0].ID).Return(nil, nil)
	s.statuses.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil)

	done := make(chan error, 1)
	go func() {
		done <- service.Run(ctx)
	}()

	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(2 * time.Second):
		s.Fail("Run should return without pausing after the last feed")
	}
}

func (s *ValidateServiceTestSuite) TestRunValidatesAllFeeds() {
	ctx := context.Background()
	feeds := []domain.Feed{
		{ID: 1, Name: "One", URL: "https://one.example.com/feed"},
		{ID: 2, Name: "Two", URL: "https://two.example.com/feed"},
	}

	s.feeds.EXPECT().List(gomock.Any()).Return(feeds, nil)

	s.checker.EXPECT().Validate(gomock.Any(), feeds[0].URL).Return(domain.ValidationResult{Valid: true})
	s.checker.EXPECT().Validate(gomock.Any(), feeds[1].URL).Return(domain.ValidationResult{Valid: false, Message: "Empty response received"})

	s.feeds.EXPECT().Exists(gomock.Any(), gomock.Any()).Return(true, nil).Times(2)
	s.statuses.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)
	s.statuses.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	err := s.service.Run(ctx)

	s.NoError(err)
}
