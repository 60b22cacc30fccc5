// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package server

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/NVIDIA/kopia-exporter/pkg/kopia"
)

// Scraper produces a fresh snapshot inventory. *kopia.Invoker implements it.
type Scraper interface {
	Run(ctx context.Context) (*kopia.Inventory, error)
}

// ScraperFunc adapts a function to Scraper.
type ScraperFunc func(ctx context.Context) (*kopia.Inventory, error)

// Run calls f.
func (f ScraperFunc) Run(ctx context.Context) (*kopia.Inventory, error) {
	return f(ctx)
}

// snapshotCache keeps the last successful inventory for ttl and coalesces
// concurrent refreshes into one kopia invocation. Failures are not cached.
type snapshotCache struct {
	scraper Scraper
	ttl     time.Duration
	now     func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	inv     *kopia.Inventory
	fetched time.Time
}

func newSnapshotCache(scraper Scraper, ttl time.Duration, now func() time.Time) *snapshotCache {
	return &snapshotCache{scraper: scraper, ttl: ttl, now: now}
}

func (c *snapshotCache) fresh() (*kopia.Inventory, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inv == nil || c.ttl <= 0 || c.now().Sub(c.fetched) >= c.ttl {
		return nil, false
	}
	return c.inv, true
}

// Get returns a cached inventory or runs the scraper. A caller giving up
// does not cancel a refresh other callers are waiting on.
func (c *snapshotCache) Get(ctx context.Context) (*kopia.Inventory, error) {
	if inv, ok := c.fresh(); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		return inv, nil
	}

	ch := c.group.DoChan("inventory", func() (any, error) {
		inv, err := c.scraper.Run(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.inv, c.fetched = inv, c.now()
			c.mu.Unlock()
		}
		return inv, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			cacheLookups.WithLabelValues("shared").Inc()
		} else {
			cacheLookups.WithLabelValues("miss").Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*kopia.Inventory), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
