package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/form-reporting-api/internal/application/scheduler"
	"github.com/jhoicas/form-reporting-api/internal/domain/access"
	"github.com/jhoicas/form-reporting-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type runner struct {
	mu      sync.Mutex
	due     []*entity.ReportSchedule
	dueErr  error
	failing map[string]bool
	ran     []string
	claims  []*access.Claims
}

func (r *runner) DueSchedules(context.Context) ([]*entity.ReportSchedule, error) {
	return r.due, r.dueErr
}

func (r *runner) ExecuteSchedule(_ context.Context, c *access.Claims, s *entity.ReportSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, s.ID)
	r.claims = append(r.claims, c)
	if c == nil || r.failing[s.ID] {
		return errors.New("falló")
	}
	return nil
}

type claimsSource map[string]*access.Claims

func (m claimsSource) Get(_ context.Context, userID string) (*access.Claims, error) {
	c, ok := m[userID]
	if !ok {
		return nil, errors.New("usuario inexistente")
	}
	return c, nil
}

func TestTick_CorreTodasAunqueAlgunaFalle(t *testing.T) {
	r := &runner{
		due: []*entity.ReportSchedule{
			{ID: "s1", ReportID: "r1", CreatedBy: "u1"},
			{ID: "s2", ReportID: "r1", CreatedBy: "u1"},
			{ID: "s3", ReportID: "r2", CreatedBy: "borrado"},
		},
		failing: map[string]bool{"s2": true},
	}
	src := claimsSource{"u1": {UserID: "u1"}}
	w := scheduler.NewWorker(r, src, time.Minute)

	ok := w.Tick(context.Background())
	assert.Equal(t, 1, ok)
	assert.Equal(t, []string{"s1", "s2", "s3"}, r.ran)
	require.Len(t, r.claims, 3)
	assert.Equal(t, "u1", r.claims[0].UserID)
	assert.Nil(t, r.claims[2], "sin claims la programación igual se registra")
}

func TestTick_ErrorAlListar(t *testing.T) {
	r := &runner{dueErr: errors.New("bd caída")}
	w := scheduler.NewWorker(r, claimsSource{}, 0)
	assert.Zero(t, w.Tick(context.Background()))
	assert.Empty(t, r.ran)
}

func TestStart_TerminaAlCancelar(t *testing.T) {
	r := &runner{due: []*entity.ReportSchedule{{ID: "s1", CreatedBy: "u1"}}}
	w := scheduler.NewWorker(r, claimsSource{"u1": {UserID: "u1"}}, 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.ran) > 0
	}, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("el worker no se detuvo")
	}
}

type expirer struct {
	calls int
	err   error
}

func (e *expirer) ExpireOverdue(context.Context) (int, error) {
	e.calls++
	return 2, e.err
}

func TestTick_RevocaAsignacionesVencidas(t *testing.T) {
	r := &runner{due: []*entity.ReportSchedule{{ID: "s1", CreatedBy: "u1"}}}
	e := &expirer{err: errors.New("bd caída")}
	w := scheduler.NewWorker(r, claimsSource{"u1": {UserID: "u1"}}, time.Minute).WithAssignmentExpiry(e)

	assert.Equal(t, 1, w.Tick(context.Background()), "un fallo al revocar no frena los reportes")
	assert.Equal(t, 1, e.calls)
}
