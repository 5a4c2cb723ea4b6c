// Package history provides persistent tracking of planning runs using
// bbolt, so operators can review what was planned for a device and when.
package history

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

// Bucket names for the bbolt database
const (
	BucketPlans  = "plans"
	BucketLatest = "latest"
)

// Plan outcome states
const (
	StatusPlanned   = "planned"
	StatusConfirmed = "confirmed"
	StatusAborted   = "aborted"
)

// DB wraps a bbolt database holding planning run records
type DB struct {
	db   *bolt.DB
	path string
}

// PlanRecord captures one planning run: what was asked for, what the
// planner decided, and how the run ended.
type PlanRecord struct {
	UUID       string    `json:"uuid"`
	Action     string    `json:"action"` // "emerge" | "unmerge"
	Requested  []string  `json:"requested"`
	Installs   []string  `json:"installs"`
	Listed     []string  `json:"listed"`
	NumUpdates int       `json:"num_updates"`
	Status     string    `json:"status"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// Open opens or creates the plan database at the given path and
// initializes its buckets. The file is created with 0600 permissions.
func Open(path string) (*DB, error) {
	bdb, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, &DatabaseError{Op: "open", Err: err}
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{BucketPlans, BucketLatest} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return &DatabaseError{Op: "create bucket", Bucket: bucket, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		bdb.Close()
		return nil, err
	}

	return &DB{db: bdb, path: path}, nil
}

// Close closes the database. Safe to call more than once.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	err := db.db.Close()
	db.db = nil
	if err != nil {
		return &DatabaseError{Op: "close", Err: err}
	}
	return nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// SavePlan stores a planning run record. A missing UUID is assigned;
// the record also becomes the "latest" plan.
func (db *DB) SavePlan(rec *PlanRecord) error {
	if db.db == nil {
		return ErrDatabaseNotOpen
	}
	if rec.UUID == "" {
		rec.UUID = uuid.NewString()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return &DatabaseError{Op: "marshal plan", Err: err}
	}

	return db.db.Update(func(tx *bolt.Tx) error {
		plans := tx.Bucket([]byte(BucketPlans))
		if plans == nil {
			return &DatabaseError{Op: "save plan", Bucket: BucketPlans, Err: ErrBucketNotFound}
		}
		if err := plans.Put([]byte(rec.UUID), data); err != nil {
			return &DatabaseError{Op: "save plan", Bucket: BucketPlans, Err: err}
		}

		latest := tx.Bucket([]byte(BucketLatest))
		if latest == nil {
			return &DatabaseError{Op: "save plan", Bucket: BucketLatest, Err: ErrBucketNotFound}
		}
		if err := latest.Put([]byte("latest"), []byte(rec.UUID)); err != nil {
			return &DatabaseError{Op: "save plan", Bucket: BucketLatest, Err: err}
		}
		return nil
	})
}

// GetPlan fetches a planning run record by UUID.
func (db *DB) GetPlan(id string) (*PlanRecord, error) {
	if db.db == nil {
		return nil, ErrDatabaseNotOpen
	}
	if id == "" {
		return nil, &ValidationError{Field: "uuid", Err: ErrEmptyUUID}
	}

	var rec PlanRecord
	err := db.db.View(func(tx *bolt.Tx) error {
		plans := tx.Bucket([]byte(BucketPlans))
		if plans == nil {
			return &DatabaseError{Op: "get plan", Bucket: BucketPlans, Err: ErrBucketNotFound}
		}
		data := plans.Get([]byte(id))
		if data == nil {
			return ErrRecordNotFound
		}
		if err := json.Unmarshal(data, &rec); err != nil {
			return &DatabaseError{Op: "unmarshal plan", Err: ErrCorruptedData}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// LatestPlan returns the most recently saved plan, or ErrRecordNotFound
// when the database is empty.
func (db *DB) LatestPlan() (*PlanRecord, error) {
	if db.db == nil {
		return nil, ErrDatabaseNotOpen
	}

	var id string
	err := db.db.View(func(tx *bolt.Tx) error {
		latest := tx.Bucket([]byte(BucketLatest))
		if latest == nil {
			return &DatabaseError{Op: "latest plan", Bucket: BucketLatest, Err: ErrBucketNotFound}
		}
		data := latest.Get([]byte("latest"))
		if data == nil {
			return ErrRecordNotFound
		}
		id = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db.GetPlan(id)
}

// ListPlans returns up to limit records, newest first. A non-positive
// limit returns everything.
func (db *DB) ListPlans(limit int) ([]PlanRecord, error) {
	if db.db == nil {
		return nil, ErrDatabaseNotOpen
	}

	var recs []PlanRecord
	err := db.db.View(func(tx *bolt.Tx) error {
		plans := tx.Bucket([]byte(BucketPlans))
		if plans == nil {
			return &DatabaseError{Op: "list plans", Bucket: BucketPlans, Err: ErrBucketNotFound}
		}
		return plans.ForEach(func(_, v []byte) error {
			var rec PlanRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return &DatabaseError{Op: "unmarshal plan", Err: ErrCorruptedData}
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].StartTime.After(recs[j].StartTime)
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}
