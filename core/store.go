// Copyright 2025 Jelly Terra <jellyterra@symboltics.com>
// This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0
// that can be found in the LICENSE file and https://mozilla.org/MPL/2.0/.

package core

import (
	"context"

	"github.com/redis/rueidis"
)

const PREFIX_DOCUMENT = "zonekit:document:"

// Database is the redis-backed store for desired-state documents. A
// deployment pipeline publishes the configuration document under a name;
// a run pulls it instead of reading a file.
type Database struct {
	Client rueidis.Client
}

// QueryDocument fetches the named document. ok is false when it does not
// exist.
func (db *Database) QueryDocument(ctx context.Context, name string) ([]byte, bool, error) {
	resp := db.Client.Do(ctx, db.Client.B().Get().Key(PREFIX_DOCUMENT+name).Build())
	b, err := resp.AsBytes()
	switch {
	case err == nil:
		return b, true, nil
	case rueidis.IsRedisNil(err):
		return nil, false, nil
	default:
		return nil, false, err
	}
}

// UpdateDocument stores the named document, replacing any previous value.
func (db *Database) UpdateDocument(ctx context.Context, name string, data []byte) error {
	return db.Client.Do(ctx, db.Client.B().Set().Key(PREFIX_DOCUMENT+name).Value(string(data)).Build()).Error()
}

// DeleteDocument removes the named document.
func (db *Database) DeleteDocument(ctx context.Context, name string) error {
	return db.Client.Do(ctx, db.Client.B().Del().Key(PREFIX_DOCUMENT+name).Build()).Error()
}

func (db *Database) Close() { db.Client.Close() }
