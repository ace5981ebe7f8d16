package systems

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spaghettifunk/heifloader/engine/renderer/metadata"
)

func TestNewJobSystemArguments(t *testing.T) {
	if _, err := NewJobSystem(0, 1); !errors.Is(err, ErrNoWorkers) {
		t.Errorf("got %v, want ErrNoWorkers", err)
	}
	if _, err := NewJobSystem(1, -1); !errors.Is(err, ErrNegativeChannelSize) {
		t.Errorf("got %v, want ErrNegativeChannelSize", err)
	}
}

func TestJobSystemCallbacks(t *testing.T) {
	js, err := NewJobSystem(3, 4)
	if err != nil {
		t.Fatal(err)
	}

	var completed, failed, finished atomic.Int32
	var wg sync.WaitGroup
	boom := errors.New("boom")

	for i := 0; i < 20; i++ {
		wg.Add(1)
		err := js.Submit(metadata.JobTask{
			JobType:     metadata.JOB_TYPE_GENERAL,
			InputParams: i,
			OnStart: func(params interface{}) (interface{}, error) {
				n := params.(int)
				if n%2 == 0 {
					return n * 10, nil
				}
				return nil, boom
			},
			OnComplete: func(result interface{}) {
				if result.(int)%20 != 0 {
					t.Errorf("unexpected result %v", result)
				}
				completed.Add(1)
			},
			OnFailure: func(err error) {
				if !errors.Is(err, boom) {
					t.Errorf("unexpected error %v", err)
				}
				failed.Add(1)
			},
			OnCompletionCallback: func() {
				finished.Add(1)
				wg.Done()
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()

	if completed.Load() != 10 || failed.Load() != 10 || finished.Load() != 20 {
		t.Errorf("completed=%d failed=%d finished=%d", completed.Load(), failed.Load(), finished.Load())
	}
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
}

func TestJobSystemShutdownDrainsQueue(t *testing.T) {
	js, err := NewJobSystem(1, 8)
	if err != nil {
		t.Fatal(err)
	}

	var ran atomic.Int32
	for i := 0; i < 8; i++ {
		err := js.Submit(metadata.JobTask{
			OnStart: func(interface{}) (interface{}, error) {
				ran.Add(1)
				return nil, nil
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if err := js.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if ran.Load() != 8 {
		t.Errorf("ran %d jobs, want 8", ran.Load())
	}

	err = js.Submit(metadata.JobTask{OnStart: func(interface{}) (interface{}, error) { return nil, nil }})
	if !errors.Is(err, ErrJobSystemClosed) {
		t.Errorf("got %v, want ErrJobSystemClosed", err)
	}
	if err := js.Shutdown(); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}

func TestJobSystemRejectsMissingEntryPoint(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer js.Shutdown()
	if err := js.Submit(metadata.JobTask{}); err == nil {
		t.Errorf("expected an error")
	}
}
