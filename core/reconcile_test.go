// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
)

func testReconciler(p *fakeProvider) *Reconciler {
	return &Reconciler{
		Provider:  p,
		Log:       logr.Discard(),
		RetryBase: time.Millisecond,
	}
}

func opCount(run *RunResult) int {
	n := 0
	for _, zr := range run.Zones {
		n += len(zr.Results)
	}
	return n
}

func TestRunConvergesAndIsIdempotent(t *testing.T) {
	p := &fakeProvider{
		exists: true,
		live: []LiveRecord{
			liveOf("www", "A", "192.0.2.99", 300),
			liveOf("stale", "CNAME", "old.example.net", 300),
		},
	}
	zones := []*Zone{planZone(
		Record{Name: "www", Type: "A", Value: "192.0.2.1", TTL: 300},
		Record{Name: "", Type: "TXT", Value: "v=spf1 -all", TTL: 300},
	)}

	run, err := testReconciler(p).Run(context.Background(), zones)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if got := opCount(run); got != 3 {
		t.Fatalf("first run ops = %d, want 3", got)
	}
	if p.updates != 1 || p.creates != 1 || p.deletes != 1 {
		t.Fatalf("mutations = %d/%d/%d", p.creates, p.updates, p.deletes)
	}

	run, err = testReconciler(p).Run(context.Background(), zones)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := opCount(run); got != 0 {
		t.Fatalf("second run ops = %d, want 0", got)
	}
}

func TestRunCreatesMissingZone(t *testing.T) {
	p := &fakeProvider{}
	zones := []*Zone{planZone(Record{Name: "www", Type: "A", Value: "192.0.2.1", TTL: 300})}

	run, err := testReconciler(p).Run(context.Background(), zones)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	zr := run.Zones[0]
	if zr.ID != "zone-1" || !zr.NameServersAvailable || len(zr.NameServers) != 2 {
		t.Fatalf("zone result = %+v", zr)
	}
	if p.creates != 1 {
		t.Fatalf("creates = %d", p.creates)
	}
}

func TestRunPartialFailure(t *testing.T) {
	p := &fakeProvider{
		exists:     true,
		failValues: map[string]bool{"192.0.2.2": true},
	}
	zones := []*Zone{planZone(
		Record{Name: "a", Type: "A", Value: "192.0.2.1", TTL: 300},
		Record{Name: "b", Type: "A", Value: "192.0.2.2", TTL: 300},
		Record{Name: "c", Type: "A", Value: "192.0.2.3", TTL: 300},
	)}

	run, err := testReconciler(p).Run(context.Background(), zones)
	var partial *PartialError
	if !errors.As(err, &partial) {
		t.Fatalf("want *PartialError, got %v", err)
	}
	if len(partial.Failed) != 1 {
		t.Fatalf("failed = %v", partial.Failed)
	}
	if partial.Failed[0].Identity.Name != "b" {
		t.Fatalf("failed record = %+v", partial.Failed[0])
	}
	// The failure never aborts the rest: the other two records converged.
	if p.creates != 2 {
		t.Fatalf("creates = %d, want 2", p.creates)
	}
	if got := opCount(run); got != 3 {
		t.Fatalf("results = %d, want 3", got)
	}
}

func TestRerunRetriesOnlyTheFailure(t *testing.T) {
	p := &fakeProvider{
		exists:     true,
		failValues: map[string]bool{"192.0.2.2": true},
	}
	zones := []*Zone{planZone(
		Record{Name: "a", Type: "A", Value: "192.0.2.1", TTL: 300},
		Record{Name: "b", Type: "A", Value: "192.0.2.2", TTL: 300},
	)}

	if _, err := testReconciler(p).Run(context.Background(), zones); err == nil {
		t.Fatal("first run should report the failure")
	}

	// Once the condition clears, a re-run touches only the failed record.
	p.failValues = nil
	run, err := testReconciler(p).Run(context.Background(), zones)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := opCount(run); got != 1 {
		t.Fatalf("second run ops = %d, want 1", got)
	}
	zr := run.Zones[0]
	if zr.Results[0].Identity.Name != "b" || zr.Results[0].Action != ActionCreate {
		t.Fatalf("retried op = %+v", zr.Results[0])
	}
}

func TestRunZoneFailure(t *testing.T) {
	p := &fakeProvider{zoneErr: errors.New("forbidden")}
	zones := []*Zone{planZone(Record{Name: "www", Type: "A", Value: "192.0.2.1", TTL: 300})}

	run, err := testReconciler(p).Run(context.Background(), zones)
	var partial *PartialError
	if !errors.As(err, &partial) {
		t.Fatalf("want *PartialError, got %v", err)
	}
	if run.Zones[0].Err == nil {
		t.Fatal("zone error not recorded")
	}
	if len(run.Zones[0].Results) != 0 {
		t.Fatal("record operations attempted on a failed zone")
	}
}

func TestRetryTransientThenSucceed(t *testing.T) {
	p := &fakeProvider{
		exists:        true,
		transientLeft: map[string]int{"192.0.2.1": 2},
	}
	zones := []*Zone{planZone(Record{Name: "www", Type: "A", Value: "192.0.2.1", TTL: 300})}

	_, err := testReconciler(p).Run(context.Background(), zones)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if p.attempts != 3 {
		t.Fatalf("attempts = %d, want 3", p.attempts)
	}
	if p.creates != 1 {
		t.Fatalf("creates = %d", p.creates)
	}
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	p := &fakeProvider{
		exists:        true,
		transientLeft: map[string]int{"192.0.2.1": 10},
	}
	zones := []*Zone{planZone(Record{Name: "www", Type: "A", Value: "192.0.2.1", TTL: 300})}

	r := testReconciler(p)
	r.MaxAttempts = 2
	_, err := r.Run(context.Background(), zones)
	var partial *PartialError
	if !errors.As(err, &partial) {
		t.Fatalf("want *PartialError, got %v", err)
	}
	if p.attempts != 2 {
		t.Fatalf("attempts = %d, want 2", p.attempts)
	}
}

func TestRetryPermanentFailsImmediately(t *testing.T) {
	p := &fakeProvider{
		exists:     true,
		failValues: map[string]bool{"192.0.2.1": true},
	}
	zones := []*Zone{planZone(Record{Name: "www", Type: "A", Value: "192.0.2.1", TTL: 300})}

	_, err := testReconciler(p).Run(context.Background(), zones)
	var partial *PartialError
	if !errors.As(err, &partial) {
		t.Fatalf("want *PartialError, got %v", err)
	}
	if p.attempts != 1 {
		t.Fatalf("attempts = %d, want 1", p.attempts)
	}
}

func TestPlanDoesNotMutate(t *testing.T) {
	p := &fakeProvider{}
	zones := []*Zone{planZone(Record{Name: "www", Type: "A", Value: "192.0.2.1", TTL: 300})}

	plans, err := testReconciler(p).Plan(context.Background(), zones)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plans[0].Exists {
		t.Fatal("missing zone reported as existing")
	}
	if len(plans[0].Ops) != 1 || plans[0].Ops[0].Action != ActionCreate {
		t.Fatalf("ops = %v", plans[0].Ops)
	}
	if p.exists || p.creates != 0 {
		t.Fatal("plan mutated the provider")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &fakeProvider{exists: true}
	zones := []*Zone{planZone(Record{Name: "www", Type: "A", Value: "192.0.2.1", TTL: 300})}

	run, err := testReconciler(p).Run(ctx, zones)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(run.Zones) != 0 {
		t.Fatal("zone scheduled after cancellation")
	}
}
