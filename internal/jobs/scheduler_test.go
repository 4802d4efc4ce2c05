package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/example/intention-scheduler/internal/application"
	"github.com/example/intention-scheduler/internal/config"
)

type stubExtender struct {
	yearlyCalls  int
	monthlyCalls int
	report       application.ExtendReport
	err          error
}

func (s *stubExtender) ExtendYearly(context.Context) (application.ExtendReport, error) {
	s.yearlyCalls++
	return s.report, s.err
}

func (s *stubExtender) ExtendMonthly(context.Context) (application.ExtendReport, error) {
	s.monthlyCalls++
	return s.report, s.err
}

type stubLifecycle struct {
	calls int
	err   error
}

func (s *stubLifecycle) UpdateLifecycle(context.Context) (application.LifecycleReport, error) {
	s.calls++
	return application.LifecycleReport{}, s.err
}

func TestScheduler_Register(t *testing.T) {

	t.Run("accepts five-field cron expressions", func(t *testing.T) {
		s := NewScheduler(&stubExtender{}, &stubLifecycle{}, nil)
		err := s.Register(config.JobSchedules{
			ExtendYearly:    "0 2 1 * *",
			ExtendMonthly:   "30 2 1 * *",
			UpdateLifecycle: "0 1 * * *",
		})
		if err != nil {
			t.Fatalf("Register returned error: %v", err)
		}
	})

	t.Run("rejects an invalid expression", func(t *testing.T) {
		s := NewScheduler(&stubExtender{}, &stubLifecycle{}, nil)
		err := s.Register(config.JobSchedules{
			ExtendYearly:    "not a cron line",
			ExtendMonthly:   "30 2 1 * *",
			UpdateLifecycle: "0 1 * * *",
		})
		if err == nil {
			t.Fatal("expected error for invalid schedule")
		}
	})
}

func TestScheduler_RunJobs(t *testing.T) {

	t.Run("invokes the underlying services", func(t *testing.T) {
		extender := &stubExtender{}
		lifecycle := &stubLifecycle{}
		s := NewScheduler(extender, lifecycle, nil)

		ctx := context.Background()
		s.runExtendYearly(ctx)
		s.runExtendMonthly(ctx)
		s.runUpdateLifecycle(ctx)

		if extender.yearlyCalls != 1 || extender.monthlyCalls != 1 {
			t.Errorf("extender calls = %d yearly, %d monthly", extender.yearlyCalls, extender.monthlyCalls)
		}
		if lifecycle.calls != 1 {
			t.Errorf("lifecycle calls = %d, want 1", lifecycle.calls)
		}
	})

	t.Run("a failing job does not panic", func(t *testing.T) {
		extender := &stubExtender{err: errors.New("store offline")}
		lifecycle := &stubLifecycle{err: errors.New("store offline")}
		s := NewScheduler(extender, lifecycle, nil)

		ctx := context.Background()
		s.runExtendYearly(ctx)
		s.runUpdateLifecycle(ctx)

		if extender.yearlyCalls != 1 || lifecycle.calls != 1 {
			t.Errorf("calls = %d, %d", extender.yearlyCalls, lifecycle.calls)
		}
	})
}
