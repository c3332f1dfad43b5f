// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// fakeProvider is an in-memory Provider with a passthrough Transform.
// Failures are injected per record value: permanent via failValues,
// transient via transientLeft (decremented on each attempt until zero).
type fakeProvider struct {
	mu     sync.Mutex
	exists bool
	live   []LiveRecord
	nextID int

	zoneErr       error
	failValues    map[string]bool
	transientLeft map[string]int
	unmanagedFn   func(LiveRecord) bool

	creates, updates, deletes, attempts int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) info() *ZoneInfo {
	return &ZoneInfo{
		ID:                   "zone-1",
		NameServers:          []string{"ns1.fake.test", "ns2.fake.test"},
		NameServersAvailable: true,
	}
}

func (f *fakeProvider) FindZone(ctx context.Context, zone *Zone) (*ZoneInfo, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.exists {
		return nil, false, nil
	}
	return f.info(), true, nil
}

func (f *fakeProvider) EnsureZone(ctx context.Context, zone *Zone) (*ZoneInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.zoneErr != nil {
		return nil, f.zoneErr
	}
	f.exists = true
	return f.info(), nil
}

func (f *fakeProvider) Records(ctx context.Context, zone *Zone, info *ZoneInfo) ([]LiveRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]LiveRecord, len(f.live))
	copy(out, f.live)
	return out, nil
}

func (f *fakeProvider) Transform(zone *Zone, rec *Record) RecordState {
	return RecordState{
		Name: rec.Name, Type: rec.Type, Value: rec.Value,
		TTL: rec.TTL, Priority: rec.Priority, Proxied: rec.Proxied, Alias: rec.Alias,
	}
}

func (f *fakeProvider) Unmanaged(zone *Zone, live LiveRecord) bool {
	if f.unmanagedFn != nil {
		return f.unmanagedFn(live)
	}
	return false
}

func (f *fakeProvider) failure(value string) error {
	f.attempts++
	if f.transientLeft[value] > 0 {
		f.transientLeft[value]--
		return &ProviderRequestError{
			Provider: "fake", Op: "mutate", StatusCode: 503,
			Transient: true, Err: errors.New("backend unavailable"),
		}
	}
	if f.failValues[value] {
		return &ProviderRequestError{
			Provider: "fake", Op: "mutate", StatusCode: 400,
			Transient: false, Err: errors.New("rejected"),
		}
	}
	return nil
}

func (f *fakeProvider) Create(ctx context.Context, zone *Zone, info *ZoneInfo, state RecordState) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(state.Value); err != nil {
		return "", err
	}
	f.creates++
	f.nextID++
	id := fmt.Sprintf("rec-%d", f.nextID)
	f.live = append(f.live, LiveRecord{ID: id, RecordState: state})
	return id, nil
}

func (f *fakeProvider) Update(ctx context.Context, zone *Zone, info *ZoneInfo, id string, state RecordState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(state.Value); err != nil {
		return err
	}
	for i := range f.live {
		if f.live[i].ID == id {
			f.updates++
			f.live[i].RecordState = state
			return nil
		}
	}
	return fmt.Errorf("no record %s", id)
}

func (f *fakeProvider) Delete(ctx context.Context, zone *Zone, info *ZoneInfo, live LiveRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failure(live.Value); err != nil {
		return err
	}
	for i := range f.live {
		if f.live[i].ID == live.ID {
			f.deletes++
			f.live = append(f.live[:i], f.live[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no record %s", live.ID)
}
