package shutdown

import (
	"context"
	"errors"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"
)

// fakeSignals lets tests inject signals without touching the process.
func fakeSignals(h *Handler) chan<- os.Signal {
	inject := make(chan os.Signal, 4)
	h.notifySig = func(c chan<- os.Signal, _ ...os.Signal) {
		go func() {
			for sig := range inject {
				c <- sig
			}
		}()
	}
	return inject
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	if h == nil {
		t.Fatal("NewHandler returned nil")
	}
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if h.logger == nil {
		t.Error("logger should default")
	}

	select {
	case <-h.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

func TestHandler_Trigger_ReverseOrder(t *testing.T) {
	h := NewHandler(5*time.Second, nil)

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"http", "sweeper", "audit"} {
		name := name
		h.OnShutdown(name, func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()
	h.Trigger()
	h.Trigger()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"audit", "sweeper", "http"}
	if len(order) != len(want) {
		t.Fatalf("hooks called = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("hooks called in wrong order: %v, want %v", order, want)
			break
		}
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait completes")
	}
}

func TestHandler_Wait_Signal(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	inject := fakeSignals(h)

	called := make(chan struct{})
	h.OnShutdown("probe", func(ctx context.Context) error {
		close(called)
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()
	inject <- syscall.SIGTERM

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}
	select {
	case <-called:
	default:
		t.Error("hook was not called")
	}
}

func TestHandler_Reload(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	inject := fakeSignals(h)

	reloaded := make(chan struct{}, 1)
	h.OnReload(func() { reloaded <- struct{}{} })

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()
	inject <- syscall.SIGHUP

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("reload callback was not called")
	}

	// SIGHUP does not stop the handler.
	select {
	case <-errCh:
		t.Fatal("Wait() returned after SIGHUP")
	case <-time.After(50 * time.Millisecond):
	}

	h.Trigger()
	<-errCh
}

func TestHandler_Wait_ContextCancel(t *testing.T) {
	h := NewHandler(time.Second, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(ctx) }()
	cancel()

	select {
	case <-errCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return on context cancel")
	}
}

func TestHandler_Wait_HookErrors(t *testing.T) {
	h := NewHandler(5*time.Second, nil)

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := false

	h.OnShutdown("a", func(ctx context.Context) error { return errA })
	h.OnShutdown("ok", func(ctx context.Context) error { ran = true; return nil })
	h.OnShutdown("b", func(ctx context.Context) error { return errB })

	h.Trigger()
	err := h.Wait(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Wait() = %v, want both hook errors", err)
	}
	if !ran {
		t.Error("a failing hook should not stop later hooks")
	}
}

func TestHandler_HookTimeout(t *testing.T) {
	h := NewHandler(20*time.Millisecond, nil)
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	h.Trigger()
	if err := h.Wait(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() = %v, want deadline exceeded", err)
	}
}

func TestHandler_ConcurrentRegistration(t *testing.T) {
	h := NewHandler(5*time.Second, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("noop", func(ctx context.Context) error { return nil })
			h.OnReload(func() {})
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.hooks) != 10 || len(h.reloads) != 10 {
		t.Errorf("hooks=%d reloads=%d, want 10 each", len(h.hooks), len(h.reloads))
	}
}
