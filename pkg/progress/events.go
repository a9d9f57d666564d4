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

// Package progress implements the typed progress event stream:
// ExecutionStarted, TaskStarted, TaskCompleted, ExecutionCompleted, and
// ExecutionFailed, always logged locally and optionally POSTed as JSON to
// a configured controller endpoint.
package progress

import "time"

// TaskResult is one task's outcome within a deployment run, attached to a
// TaskCompleted event.
type TaskResult struct {
	TaskID     string `json:"task_id"`
	Host       string `json:"host"`
	Success    bool   `json:"success"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// ExecutionResult summarizes a full pipeline run, attached to an
// ExecutionCompleted event.
type ExecutionResult struct {
	ExecID     string `json:"exec_id"`
	TotalTasks int    `json:"total_tasks"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	DurationMs int64  `json:"duration_ms"`
}

// Event is any member of the progress stream. Every event carries its own
// tag so a JSON sink can discriminate without reflection.
type Event interface {
	EventType() string
	Timestamp() time.Time
}

type baseEvent struct {
	At time.Time `json:"timestamp"`
}

func newBase() baseEvent { return baseEvent{At: time.Now()} }

// Timestamp returns when the event was created.
func (b baseEvent) Timestamp() time.Time { return b.At }

// ExecutionStarted marks the beginning of a deployment run.
type ExecutionStarted struct {
	baseEvent
	ExecID     string `json:"exec_id"`
	TotalTasks int    `json:"total_tasks"`
}

func (ExecutionStarted) EventType() string { return "execution.started" }

// NewExecutionStarted builds an ExecutionStarted event.
func NewExecutionStarted(execID string, totalTasks int) ExecutionStarted {
	return ExecutionStarted{baseEvent: newBase(), ExecID: execID, TotalTasks: totalTasks}
}

// TaskStarted marks the beginning of a single task's execution.
type TaskStarted struct {
	baseEvent
	TaskID string `json:"task_id"`
	Name   string `json:"name"`
}

func (TaskStarted) EventType() string { return "task.started" }

// NewTaskStarted builds a TaskStarted event.
func NewTaskStarted(taskID, name string) TaskStarted {
	return TaskStarted{baseEvent: newBase(), TaskID: taskID, Name: name}
}

// TaskCompleted carries one task's result.
type TaskCompleted struct {
	baseEvent
	Result TaskResult `json:"result"`
}

func (TaskCompleted) EventType() string { return "task.completed" }

// NewTaskCompleted builds a TaskCompleted event.
func NewTaskCompleted(result TaskResult) TaskCompleted {
	return TaskCompleted{baseEvent: newBase(), Result: result}
}

// ExecutionCompleted carries the full run's result.
type ExecutionCompleted struct {
	baseEvent
	Result ExecutionResult `json:"result"`
}

func (ExecutionCompleted) EventType() string { return "execution.completed" }

// NewExecutionCompleted builds an ExecutionCompleted event.
func NewExecutionCompleted(result ExecutionResult) ExecutionCompleted {
	return ExecutionCompleted{baseEvent: newBase(), Result: result}
}

// ExecutionFailed reports a run-ending failure that precluded a normal
// ExecutionCompleted event.
type ExecutionFailed struct {
	baseEvent
	Error string `json:"error"`
}

func (ExecutionFailed) EventType() string { return "execution.failed" }

// NewExecutionFailed builds an ExecutionFailed event.
func NewExecutionFailed(err error) ExecutionFailed {
	return ExecutionFailed{baseEvent: newBase(), Error: err.Error()}
}
