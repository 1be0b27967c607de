package debounce_test

import (
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/itemdeck/pkg/utils/debounce"
)

type recorder struct {
	mu     sync.Mutex
	values []string
	fired  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 16)}
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestDebouncer_FiresOnceWithLastValue(t *testing.T) {
	rec := newRecorder()
	d := debounce.New(30*time.Millisecond, rec.record)

	d.Trigger("f")
	d.Trigger("fo")
	d.Trigger("foo")
	gt.Bool(t, d.Pending()).True()

	select {
	case <-rec.fired:
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire")
	}

	// Give a stale timer a chance to misfire
	time.Sleep(60 * time.Millisecond)

	gt.Value(t, rec.snapshot()).Equal([]string{"foo"})
	gt.Bool(t, d.Pending()).False()
}

func TestDebouncer_TriggerRestartsQuietPeriod(t *testing.T) {
	rec := newRecorder()
	d := debounce.New(50*time.Millisecond, rec.record)

	start := time.Now()
	d.Trigger("a")
	time.Sleep(30 * time.Millisecond)
	d.Trigger("ab")

	select {
	case <-rec.fired:
	case <-time.After(time.Second):
		t.Fatal("debouncer did not fire")
	}

	gt.Bool(t, time.Since(start) >= 80*time.Millisecond).True()
	gt.Value(t, rec.snapshot()).Equal([]string{"ab"})
}

func TestDebouncer_Flush(t *testing.T) {
	rec := newRecorder()
	d := debounce.New(time.Hour, rec.record)

	d.Trigger("now")
	d.Flush()
	gt.Value(t, rec.snapshot()).Equal([]string{"now"})

	// Nothing pending: second flush is a no-op
	d.Flush()
	gt.Array(t, rec.snapshot()).Length(1)
}

func TestDebouncer_Stop(t *testing.T) {
	rec := newRecorder()
	d := debounce.New(20*time.Millisecond, rec.record)

	d.Trigger("dropped")
	d.Stop()
	d.Trigger("ignored")

	time.Sleep(60 * time.Millisecond)
	gt.Array(t, rec.snapshot()).Length(0)
	gt.Bool(t, d.Pending()).False()
}
