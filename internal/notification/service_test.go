package notification

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"fedevents/internal/platform/metrics"
	dErrors "fedevents/pkg/domain-errors"
)

type NotificationSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
	svc   *Service
}

func TestNotificationSuite(t *testing.T) {
	suite.Run(t, new(NotificationSuite))
}

func (s *NotificationSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemoryStore()
	s.svc = NewService(s.store, metrics.NewWith(prometheus.NewRegistry()))
}

func (s *NotificationSuite) emit(userID int64, title string, at time.Time) Notification {
	n := Notification{UserID: userID, Title: title, CreatedAt: at}
	s.Require().NoError(s.svc.Emit(s.ctx, n))
	items, err := s.store.List(s.ctx, Query{UserID: userID, Filter: FilterAll})
	s.Require().NoError(err)
	s.Require().NotEmpty(items)
	return items[0]
}

func (s *NotificationSuite) TestEmit() {
	s.Run("defaults kind and level", func() {
		n := s.emit(1, "Invitación recibida", time.Now().UTC())
		s.Equal(KindGeneral, n.Kind)
		s.Equal(LevelInfo, n.Level)
		s.False(n.Read)
		s.NotZero(n.ID)
	})

	s.Run("requires a recipient", func() {
		err := s.svc.Emit(s.ctx, Notification{Title: "sin destino"})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("requires a title", func() {
		err := s.svc.Emit(s.ctx, Notification{UserID: 1})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *NotificationSuite) TestListFiltersByReadState() {
	base := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	first := s.emit(1, "primera", base)
	s.emit(1, "segunda", base.Add(time.Minute))
	s.emit(2, "ajena", base)

	s.Require().NoError(s.svc.MarkRead(s.ctx, first.ID, 1, true))

	unread, err := s.svc.List(s.ctx, Query{UserID: 1, Filter: FilterUnread})
	s.Require().NoError(err)
	s.Require().Len(unread, 1)
	s.Equal("segunda", unread[0].Title)

	read, err := s.svc.List(s.ctx, Query{UserID: 1, Filter: FilterRead})
	s.Require().NoError(err)
	s.Require().Len(read, 1)
	s.Equal("primera", read[0].Title)

	all, err := s.svc.List(s.ctx, Query{UserID: 1})
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal("segunda", all[0].Title)
}

func (s *NotificationSuite) TestListSearchesTitleAndMessage() {
	s.Require().NoError(s.svc.Emit(s.ctx, Notification{
		UserID: 1, Title: "Resultado publicado", Message: "Colegio San José ganó",
	}))
	s.Require().NoError(s.svc.Emit(s.ctx, Notification{
		UserID: 1, Title: "Invitación", Message: "Liceo Central fue invitado",
	}))

	hits, err := s.svc.List(s.ctx, Query{UserID: 1, Search: "san josé"})
	s.Require().NoError(err)
	s.Require().Len(hits, 1)
	s.Equal("Resultado publicado", hits[0].Title)
}

func (s *NotificationSuite) TestListRequiresUser() {
	_, err := s.svc.List(s.ctx, Query{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *NotificationSuite) TestSummary() {
	base := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		s.emit(1, "alerta", base.Add(time.Duration(i)*time.Minute))
	}

	sum, err := s.svc.Summary(s.ctx, 1, 2)
	s.Require().NoError(err)
	s.Equal(4, sum.TotalUnread)
	s.Len(sum.Recent, 2)

	sum, err = s.svc.Summary(s.ctx, 1, 0)
	s.Require().NoError(err)
	s.Len(sum.Recent, 4)
}

func (s *NotificationSuite) TestMarkRead() {
	n := s.emit(1, "alerta", time.Now().UTC())

	s.Require().NoError(s.svc.MarkRead(s.ctx, n.ID, 1, true))
	items, err := s.svc.List(s.ctx, Query{UserID: 1, Filter: FilterRead})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Require().NotNil(items[0].ReadAt)

	s.Require().NoError(s.svc.MarkRead(s.ctx, n.ID, 1, false))
	items, err = s.svc.List(s.ctx, Query{UserID: 1, Filter: FilterUnread})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Nil(items[0].ReadAt)

	s.Run("wrong owner is not found", func() {
		err := s.svc.MarkRead(s.ctx, n.ID, 99, true)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown id is not found", func() {
		err := s.svc.MarkRead(s.ctx, 404, 1, true)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *NotificationSuite) TestMarkAll() {
	base := time.Now().UTC()
	s.emit(1, "una", base)
	s.emit(1, "otra", base.Add(time.Minute))
	s.emit(2, "ajena", base)

	affected, err := s.svc.MarkAll(s.ctx, 1, true)
	s.Require().NoError(err)
	s.Equal(2, affected)

	count, err := s.store.CountUnread(s.ctx, 1)
	s.Require().NoError(err)
	s.Zero(count)

	affected, err = s.svc.MarkAll(s.ctx, 1, true)
	s.Require().NoError(err)
	s.Zero(affected)
}

func (s *NotificationSuite) TestRemoveAndClear() {
	base := time.Now().UTC()
	n := s.emit(1, "una", base)
	s.emit(1, "otra", base.Add(time.Minute))
	s.emit(2, "ajena", base)

	s.Require().NoError(s.svc.Remove(s.ctx, n.ID, 1))
	err := s.svc.Remove(s.ctx, n.ID, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	deleted, err := s.svc.Clear(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(1, deleted)

	others, err := s.svc.List(s.ctx, Query{UserID: 2})
	s.Require().NoError(err)
	s.Len(others, 1)
}
