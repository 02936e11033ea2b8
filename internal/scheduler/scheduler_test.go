package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"

	"github.com/alanyoungcy/offerbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAddRejectsInvalidSpec(t *testing.T) {
	s := New(false, testLogger())
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{"*/5 * * * *", false},
		{"@every 1m", false},
		{"@hourly", false},
		{"every minute", true},
		{"* * *", true},
	}
	for _, tt := range tests {
		err := s.Add(Job{Name: "j", Spec: tt.spec, Run: func(context.Context) error { return nil }})
		if (err != nil) != tt.wantErr {
			t.Errorf("Add(%q) err = %v, wantErr %v", tt.spec, err, tt.wantErr)
		}
	}
}

func TestRunOnceRunsAllJobs(t *testing.T) {
	s := New(false, testLogger())
	var ran []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		s.Add(Job{Name: name, Spec: "@hourly", Run: func(context.Context) error {
			ran = append(ran, name)
			if name == "a" {
				return errors.New("boom")
			}
			return nil
		}})
	}

	s.RunOnce(context.Background())
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(ran, want) {
		t.Errorf("ran = %v, want %v", ran, want)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(true, testLogger())
	started := make(chan struct{}, 1)
	s.Add(Job{Name: "j", Spec: "@hourly", Run: func(context.Context) error {
		started <- struct{}{}
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type recorder struct {
	seen []domain.Provider
	fail domain.Provider
}

func (r *recorder) Maintain(_ context.Context, p domain.Provider) error {
	r.seen = append(r.seen, p)
	if p == r.fail {
		return domain.ErrLockHeld
	}
	return nil
}

func TestMaintainTokenJobVisitsEveryProvider(t *testing.T) {
	r := &recorder{fail: domain.ProviderNoones}
	job := MaintainTokenJob("@every 1m", r, []domain.Provider{domain.ProviderNoones, domain.ProviderPaxful})

	err := job.Run(context.Background())
	if !errors.Is(err, domain.ErrLockHeld) {
		t.Errorf("err = %v, want ErrLockHeld", err)
	}
	if want := []domain.Provider{domain.ProviderNoones, domain.ProviderPaxful}; !reflect.DeepEqual(r.seen, want) {
		t.Errorf("seen = %v, want %v", r.seen, want)
	}
}
