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
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"zerohop/pkg/events"
)

// historySize bounds the reporter's in-memory record of recent events,
// served by Recent for post-run summaries and debugging.
const historySize = 1000

// Reporter fans a run's progress events out to local logging (always) and
// an optional HTTP sink (fire-and-forget). It is constructed once per
// pipeline run and threaded through every stage by value reference,
// rather than kept as module-level state.
type Reporter struct {
	logger   *slog.Logger
	bus      *events.EventBus
	endpoint string
	client   *http.Client
	timeout  time.Duration
	history  *eventHistory
}

// Config controls the optional HTTP sink.
type Config struct {
	// ControllerEndpoint, when non-empty, receives one POST per event at
	// "/api/v1/progress".
	ControllerEndpoint string
	// ReportTimeout bounds each POST. Defaults to 10s when zero.
	ReportTimeout time.Duration
}

// New builds a Reporter. bus may be nil if no in-process subscribers are
// needed beyond the reporter's own sinks.
func New(logger *slog.Logger, bus *events.EventBus, cfg Config) *Reporter {
	timeout := cfg.ReportTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Reporter{
		logger:   logger,
		bus:      bus,
		endpoint: cfg.ControllerEndpoint,
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
		history:  newEventHistory(historySize),
	}
}

// Recent returns the last n emitted events, oldest first.
func (r *Reporter) Recent(n int) []Event {
	return r.history.last(n)
}

// Emit logs event locally, publishes it on the in-process bus if one was
// configured, and fires an async HTTP POST to the controller endpoint if
// configured. A POST failure logs a warning and never fails the run
// under any circumstances.
func (r *Reporter) Emit(event Event) {
	r.logger.Info("progress event", "type", event.EventType(), "at", event.Timestamp())
	r.history.add(event)

	if r.bus != nil {
		r.bus.Publish(busEvent{event})
	}

	if r.endpoint == "" {
		return
	}
	go r.post(event)
}

func (r *Reporter) post(event Event) {
	body, err := marshalWireEvent(event)
	if err != nil {
		r.logger.Warn("progress: failed to marshal event for controller endpoint", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/api/v1/progress", bytes.NewReader(body))
	if err != nil {
		r.logger.Warn("progress: failed to build controller endpoint request", "error", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("progress: controller endpoint POST failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		r.logger.Warn("progress: controller endpoint rejected event", "status", resp.StatusCode, "type", event.EventType())
	}
}

// marshalWireEvent flattens an event into {"type": <event-tag>, ...fields}
// per the wire format: marshal the event, decode it back into a generic
// map, and splice in the tag rather than nesting the event under a key.
func marshalWireEvent(event Event) ([]byte, error) {
	fieldsJSON, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal(fieldsJSON, &fields); err != nil {
		return nil, err
	}
	fields["type"] = event.EventType()

	return json.Marshal(fields)
}

// busEvent adapts a progress.Event to events.Event for in-process
// publication; the method sets already match, this only pins the type.
type busEvent struct {
	Event
}
