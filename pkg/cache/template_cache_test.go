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

package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTemplateCache_PutGet(t *testing.T) {
	c := NewTemplateCache(0, 0)
	c.Put("k1", "v1")

	v, ok := c.Get("k1")
	assert.True(t, ok)
	assert.Equal(t, "v1", v)
}

func TestTemplateCache_MissReturnsFalse(t *testing.T) {
	c := NewTemplateCache(0, 0)
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestTemplateCache_ExpiresAfterTTL(t *testing.T) {
	c := NewTemplateCache(10, time.Millisecond)
	c.Put("k1", "v1")
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTemplateCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewTemplateCache(2, 0)
	c.Put("k1", "v1")
	c.Put("k2", "v2")

	// Touch k1 so it's most recently used; k2 becomes the LRU victim.
	_, _ = c.Get("k1")
	c.Put("k3", "v3")

	_, ok1 := c.Get("k1")
	_, ok2 := c.Get("k2")
	_, ok3 := c.Get("k3")
	assert.True(t, ok1)
	assert.False(t, ok2)
	assert.True(t, ok3)
	assert.Equal(t, 2, c.Len())
}

func TestTemplateCache_PutExistingKeyRefreshesValue(t *testing.T) {
	c := NewTemplateCache(0, 0)
	c.Put("k1", "v1")
	c.Put("k1", "v2")

	v, ok := c.Get("k1")
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
	assert.Equal(t, 1, c.Len())
}
