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

package progress

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zerohop/pkg/events"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReporter_EmitPublishesToBus(t *testing.T) {
	bus := events.NewEventBus(10)
	bus.Start()
	ch := bus.Subscribe(10)

	r := New(discardLogger(), bus, Config{})
	r.Emit(NewExecutionStarted("exec-1", 3))

	select {
	case evt := <-ch:
		assert.Equal(t, "execution.started", evt.EventType())
	case <-time.After(time.Second):
		t.Fatal("expected event on bus")
	}
}

func TestReporter_PostsToControllerEndpoint(t *testing.T) {
	var mu sync.Mutex
	var received map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/api/v1/progress", req.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		mu.Lock()
		received = body
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New(discardLogger(), nil, Config{ControllerEndpoint: srv.URL, ReportTimeout: 2 * time.Second})
	r.Emit(NewTaskStarted("t1", "debug"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return received != nil
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "task.started", received["type"])
	assert.Equal(t, "t1", received["task_id"])
}

func TestReporter_PostFailureDoesNotPanic(t *testing.T) {
	r := New(discardLogger(), nil, Config{ControllerEndpoint: "http://127.0.0.1:1", ReportTimeout: 100 * time.Millisecond})
	assert.NotPanics(t, func() {
		r.Emit(NewExecutionFailed(assertError("boom")))
		time.Sleep(200 * time.Millisecond)
	})
}

func TestReporter_RecentReturnsHistoryOldestFirst(t *testing.T) {
	r := New(discardLogger(), nil, Config{})
	r.Emit(NewExecutionStarted("exec-1", 2))
	r.Emit(NewTaskStarted("t1", "debug"))
	r.Emit(NewTaskStarted("t2", "copy"))

	recent := r.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "task.started", recent[0].EventType())
	assert.Equal(t, "task.started", recent[1].EventType())

	all := r.Recent(10)
	require.Len(t, all, 3)
	assert.Equal(t, "execution.started", all[0].EventType())
}

type assertError string

func (e assertError) Error() string { return string(e) }
