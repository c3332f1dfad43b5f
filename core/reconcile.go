// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

const (
	DefaultConcurrency = 4
	DefaultMaxAttempts = 3
	DefaultRetryBase   = 500 * time.Millisecond
)

// OpResult is the outcome of one record operation.
type OpResult struct {
	ZoneKey  string   `json:"zone"`
	Identity Identity `json:"-"`
	Action   string   `json:"action"`
	FQDN     string   `json:"fqdn"`
	RecordID string   `json:"record_id,omitempty"`
	Proxied  bool     `json:"proxied,omitempty"`
	Err      error    `json:"-"`
}

// ZoneResult is the per-zone reconciliation outcome.
type ZoneResult struct {
	Key                  string
	Domain               string
	ID                   string
	NameServers          []string
	NameServersAvailable bool
	Results              []OpResult

	// Err is set when the zone itself could not be resolved; record
	// operations were then never attempted.
	Err error
}

// RunResult aggregates a whole reconciliation run.
type RunResult struct {
	Provider string
	Zones    []*ZoneResult
}

// Reconciler converges live provider state to the canonical zones. Record
// operations of distinct identity run concurrently up to Concurrency;
// operations within one (name, type) group serialize since some providers
// mutate the whole group at once. Transient provider errors are retried
// with exponential backoff up to MaxAttempts; permanent errors surface
// immediately. A failed record never aborts the rest of the run.
type Reconciler struct {
	Provider    Provider
	Log         logr.Logger
	Concurrency int
	MaxAttempts int
	RetryBase   time.Duration
}

func (r *Reconciler) concurrency() int {
	if r.Concurrency > 0 {
		return r.Concurrency
	}
	return DefaultConcurrency
}

func (r *Reconciler) maxAttempts() int {
	if r.MaxAttempts > 0 {
		return r.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (r *Reconciler) retryBase() time.Duration {
	if r.RetryBase > 0 {
		return r.RetryBase
	}
	return DefaultRetryBase
}

// Plan computes the diff for every zone without mutating anything. Zones
// the provider does not have yet plan as pure creates.
func (r *Reconciler) Plan(ctx context.Context, zones []*Zone) ([]ZonePlan, error) {
	plans := make([]ZonePlan, 0, len(zones))
	for _, zone := range zones {
		info, ok, err := r.Provider.FindZone(ctx, zone)
		if err != nil {
			return nil, err
		}
		var live []LiveRecord
		if ok {
			live, err = r.Provider.Records(ctx, zone, info)
			if err != nil {
				return nil, err
			}
		}
		plans = append(plans, ZonePlan{Zone: zone, Exists: ok, Ops: PlanZone(r.Provider, zone, live)})
	}
	return plans, nil
}

// Run converges every zone. It returns the full result and, when some
// zones or operations failed, a *PartialError listing them. Cancellation
// stops scheduling new operations; applied ones stay applied.
func (r *Reconciler) Run(ctx context.Context, zones []*Zone) (*RunResult, error) {
	run := &RunResult{Provider: r.Provider.Name()}
	var failed []OpResult
	for _, zone := range zones {
		if ctx.Err() != nil {
			break
		}
		zr := r.runZone(ctx, zone)
		run.Zones = append(run.Zones, zr)
		if zr.Err != nil {
			failed = append(failed, OpResult{ZoneKey: zr.Key, Action: "resolve", FQDN: zr.Domain, Err: zr.Err})
		}
		for _, res := range zr.Results {
			if res.Err != nil {
				failed = append(failed, res)
			}
		}
	}
	if len(failed) > 0 {
		return run, &PartialError{Failed: failed}
	}
	return run, ctx.Err()
}

func (r *Reconciler) runZone(ctx context.Context, zone *Zone) *ZoneResult {
	zr := &ZoneResult{Key: zone.Key, Domain: zone.Domain}

	var info *ZoneInfo
	err := r.retry(ctx, func() error {
		var err error
		info, err = r.Provider.EnsureZone(ctx, zone)
		return err
	})
	if err != nil {
		zr.Err = err
		r.Log.Error(err, "zone resolution failed", "zone", zone.Key)
		return zr
	}
	zr.ID = info.ID
	zr.NameServers = info.NameServers
	zr.NameServersAvailable = info.NameServersAvailable

	var live []LiveRecord
	err = r.retry(ctx, func() error {
		var err error
		live, err = r.Provider.Records(ctx, zone, info)
		return err
	})
	if err != nil {
		zr.Err = err
		r.Log.Error(err, "listing live records failed", "zone", zone.Key)
		return zr
	}

	groups := groupOps(PlanZone(r.Provider, zone, live))

	results := make([][]OpResult, len(groups))
	sem := make(chan struct{}, r.concurrency())
	var wg sync.WaitGroup
	for i, group := range groups {
		i, group := i, group
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			for _, op := range group {
				results[i] = append(results[i], r.applyOp(ctx, zone, info, op))
			}
		}()
	}
	wg.Wait()

	for _, rs := range results {
		zr.Results = append(zr.Results, rs...)
	}
	return zr
}

// groupOps shards ops by (name, type) so same-group mutations serialize.
func groupOps(ops []Op) [][]Op {
	index := map[GroupKey]int{}
	var groups [][]Op
	for _, op := range ops {
		k := GroupKey{Name: op.Identity.Name, Type: op.Identity.Type}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], op)
	}
	return groups
}

func (r *Reconciler) applyOp(ctx context.Context, zone *Zone, info *ZoneInfo, op Op) OpResult {
	res := OpResult{
		ZoneKey:  op.ZoneKey,
		Identity: op.Identity,
		Action:   op.Action,
		Proxied:  op.Desired.Proxied,
	}
	rec := Record{Name: op.Identity.Name}
	res.FQDN = rec.FQDN(zone.Domain)

	err := r.retry(ctx, func() error {
		switch op.Action {
		case ActionCreate:
			id, err := r.Provider.Create(ctx, zone, info, op.Desired)
			if err != nil {
				return err
			}
			res.RecordID = id
			return nil
		case ActionUpdate:
			res.RecordID = op.LiveID
			return r.Provider.Update(ctx, zone, info, op.LiveID, op.Desired)
		case ActionDelete:
			return r.Provider.Delete(ctx, zone, info, *op.Live)
		}
		return nil
	})
	res.Err = err
	if err != nil {
		r.Log.Error(err, "record operation failed", "zone", op.ZoneKey, "record", op.Identity.String(), "action", op.Action)
	} else {
		r.Log.V(1).Info("record converged", "zone", op.ZoneKey, "record", op.Identity.String(), "action", op.Action)
	}
	return res
}

// retry runs fn up to MaxAttempts times, backing off exponentially, but
// only while the failure is transient and the context is alive.
func (r *Reconciler) retry(ctx context.Context, fn func() error) error {
	delay := r.retryBase()
	var err error
	for attempt := 1; ; attempt++ {
		err = fn()
		if err == nil || !IsTransient(err) || attempt >= r.maxAttempts() {
			return err
		}
		r.Log.V(1).Info("transient failure, retrying", "attempt", attempt, "delay", delay.String())
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
		delay *= 2
	}
}
