package scheduler

import (
	"testing"
	"time"
)

func TestSchedulerAddJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	// Should add a valid cron job without error
	if err := s.AddJob(Midnight, func() {}); err != nil {
		t.Errorf("Expected no error adding job, got %v", err)
	}
	if err := s.AddJob("not a cron", func() {}); err == nil {
		t.Error("Expected error for invalid expression")
	}
	if s.Jobs() != 1 {
		t.Errorf("Expected 1 job, got %d", s.Jobs())
	}
}

func TestSchedulerMidnightUsesLocation(t *testing.T) {
	taipei := time.FixedZone("Asia/Taipei", 8*60*60)
	s := NewScheduler(WithLocation(taipei))
	defer s.Stop()

	// 23:50 in Taipei is 15:50 UTC.
	from := time.Date(2024, 5, 1, 15, 50, 0, 0, time.UTC)
	next, err := s.NextRun(Midnight, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 5, 2, 0, 0, 0, 0, taipei)
	if !next.Equal(want) {
		t.Errorf("expected next run %v, got %v", want, next)
	}
}

func TestSchedulerRunsJobs(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	ran := make(chan struct{}, 1)
	if err := s.AddJob("@every 1s", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestSchedulerRecoversFromPanics(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	ran := make(chan struct{}, 2)
	if err := s.AddJob("@every 1s", func() {
		select {
		case ran <- struct{}{}:
		default:
		}
		panic("boom")
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-ran:
		case <-time.After(3 * time.Second):
			t.Fatalf("job stopped running after a panic (run %d)", i)
		}
	}
}
