// Package boltstore keeps the mirrored classroom state in a single bbolt
// file. Each entity kind lives in its own bucket keyed by natural key, with
// secondary index buckets for the lookups the repositories need.
package boltstore

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"classroom_sync/internal/domain/store"
)

var buckets = struct {
	courses, students, studentsByExternal, assignments, submissions, submissionsByStudent, invitations, users []byte
}{
	courses:              []byte("Courses"),
	students:             []byte("Students"),
	studentsByExternal:   []byte("StudentsByExternalID"),
	assignments:          []byte("Assignments"),
	submissions:          []byte("Submissions"),
	submissionsByStudent: []byte("SubmissionsByStudent"),
	invitations:          []byte("Invitations"),
	users:                []byte("Users"),
}

// keySep joins the parts of composite keys. It cannot appear in emails or
// provider ids.
const keySep = "\x00"

type Store struct {
	db  *bbolt.DB
	now func() time.Time
}

// Open opens (or creates) the database file and its buckets.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{
			buckets.courses, buckets.students, buckets.studentsByExternal, buckets.assignments,
			buckets.submissions, buckets.submissionsByStudent, buckets.invitations, buckets.users,
		} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Repositories returns every repository backed by s.
func (s *Store) Repositories() store.Repositories {
	return store.Repositories{
		Courses:     &courseRepository{s},
		Students:    &studentRepository{s},
		Assignments: &assignmentRepository{s},
		Submissions: &submissionRepository{s},
		Invitations: &invitationRepository{s},
		Users:       &userRepository{s},
	}
}

func put[T any](b *bbolt.Bucket, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

// get decodes the value under key. It returns nil when the key is absent.
func get[T any](b *bbolt.Bucket, key string) (*T, error) {
	v := b.Get([]byte(key))
	if v == nil {
		return nil, nil
	}
	var out T
	if err := json.Unmarshal(v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// listByPrefix decodes every value whose key starts with prefix, in key order.
func listByPrefix[T any](b *bbolt.Bucket, prefix string) ([]*T, error) {
	out := make([]*T, 0)
	c := b.Cursor()
	p := []byte(prefix)
	for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
		var item T
		if err := json.Unmarshal(v, &item); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, nil
}

// keysByPrefix returns the keys starting with prefix with the prefix removed.
func keysByPrefix(b *bbolt.Bucket, prefix string) []string {
	var out []string
	c := b.Cursor()
	p := []byte(prefix)
	for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
		out = append(out, string(k[len(p):]))
	}
	return out
}

func compositeKey(parts ...string) string {
	key := parts[0]
	for _, p := range parts[1:] {
		key += keySep + p
	}
	return key
}
