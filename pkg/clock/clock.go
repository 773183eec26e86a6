/* Copyright 2025 Userhub Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package clock abstracts the wall clock so that time-dependent
// housekeeping can be driven by tests.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

type clock struct{}

func (c *clock) Now() time.Time {
	return time.Now()
}

// New returns a Clock backed by time.Now
func New() Clock {
	return &clock{}
}

// Mock is a Clock whose time only moves when told to.
type Mock struct {
	mu          sync.RWMutex
	currentTime time.Time
}

// NewMock returns a mock clock frozen at a fixed instant
func NewMock() *Mock {
	return &Mock{
		currentTime: time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Now returns the mocked current time
func (c *Mock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.currentTime
}

// SetNow pins the mocked time to t
func (c *Mock) SetNow(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentTime = t
}

// Advance moves the mocked time forward by d
func (c *Mock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentTime = c.currentTime.Add(d)
}
