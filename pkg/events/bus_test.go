// Copyright 2025 Philipp Hossner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stageEvent struct {
	tag string
	at  time.Time
}

func (e stageEvent) EventType() string    { return e.tag }
func (e stageEvent) Timestamp() time.Time { return e.at }

func TestEventBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewEventBus(4)
	a := bus.Subscribe(4)
	b := bus.Subscribe(4)
	bus.Start()

	sent := bus.Publish(stageEvent{tag: "compilation.completed", at: time.Now()})
	assert.Equal(t, 2, sent)

	for _, ch := range []<-chan Event{a, b} {
		select {
		case evt := <-ch:
			assert.Equal(t, "compilation.completed", evt.EventType())
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestEventBus_BuffersUntilStart(t *testing.T) {
	bus := NewEventBus(4)

	sent := bus.Publish(stageEvent{tag: "analysis.completed", at: time.Now()})
	assert.Zero(t, sent, "pre-start publish should buffer, not deliver")

	ch := bus.Subscribe(4)
	bus.Start()

	select {
	case evt := <-ch:
		assert.Equal(t, "analysis.completed", evt.EventType())
	case <-time.After(time.Second):
		t.Fatal("buffered event was not replayed on Start")
	}
}

func TestEventBus_StartIsIdempotent(t *testing.T) {
	bus := NewEventBus(4)
	ch := bus.Subscribe(4)

	bus.Publish(stageEvent{tag: "deployment.started", at: time.Now()})
	bus.Start()
	bus.Start()

	require.Len(t, drain(ch), 1, "second Start must not replay the buffer again")
}

func TestEventBus_FullSubscriberDropsInsteadOfBlocking(t *testing.T) {
	bus := NewEventBus(1)
	bus.Start()
	bus.Subscribe(1)

	sent := bus.Publish(stageEvent{tag: "host.deployed", at: time.Now()})
	assert.Equal(t, 1, sent)

	// Channel is now full and unread; the next publish must not block.
	done := make(chan struct{})
	go func() {
		bus.Publish(stageEvent{tag: "host.deployed", at: time.Now()})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber channel")
	}
}

func TestEventBus_ConcurrentPublish(t *testing.T) {
	bus := NewEventBus(4)
	ch := bus.Subscribe(256)
	bus.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 16; j++ {
				bus.Publish(stageEvent{tag: "task.completed", at: time.Now()})
			}
		}()
	}
	wg.Wait()

	assert.Len(t, drain(ch), 128)
}

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case evt := <-ch:
			out = append(out, evt)
		default:
			return out
		}
	}
}
