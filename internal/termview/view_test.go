package termview

import (
	"testing"
	"time"

	"github.com/nsf/termbox-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPumpEvents_StopsWhenReaderGone(t *testing.T) {
	events := make(chan termbox.Event)
	done := make(chan struct{})
	exited := make(chan struct{})

	poll := func() termbox.Event {
		return termbox.Event{Type: termbox.EventKey, Ch: 'x'}
	}
	go func() {
		pumpEvents(poll, events, done)
		close(exited)
	}()

	ev := <-events
	assert.Equal(t, 'x', ev.Ch)

	// Никто больше не читает events: закрытие done должно освободить отправку
	close(done)
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		require.Fail(t, "pumpEvents завис на отправке события")
	}
}

func TestPumpEvents_StopsOnInterrupt(t *testing.T) {
	events := make(chan termbox.Event)
	done := make(chan struct{})
	defer close(done)

	exited := make(chan struct{})
	go func() {
		pumpEvents(func() termbox.Event { return termbox.Event{Type: termbox.EventInterrupt} }, events, done)
		close(exited)
	}()

	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		require.Fail(t, "pumpEvents не завершился по EventInterrupt")
	}
}
