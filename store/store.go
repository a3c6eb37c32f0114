package store

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
	"github.com/rs/xid"
	log "github.com/sirupsen/logrus"

	"ridefunnel/model"
)

const pullSnapshotTag = "Store#PullSnapshot"

// Store - Read-only access to the five fact relations. The source data
// is append-only historical fact; nothing here ever writes.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// PullSnapshot bulk reads all five relations in primary-key order into
// one immutable snapshot. Ordering makes repeated pulls of unchanged
// data byte-identical, which the result cache and the idempotence
// contract rely on.
func (store *Store) PullSnapshot() (*model.Snapshot, error) {
	startTime := time.Now()
	snapshot := &model.Snapshot{ID: xid.New().String()}

	if err := store.db.Order("app_download_key").
		Find(&snapshot.Downloads).Error; err != nil {
		return nil, errors.Wrap(err, "failed to pull app_downloads")
	}

	if err := store.db.Order("user_id").
		Find(&snapshot.Signups).Error; err != nil {
		return nil, errors.Wrap(err, "failed to pull signups")
	}

	if err := store.db.Order("ride_id").
		Find(&snapshot.RideRequests).Error; err != nil {
		return nil, errors.Wrap(err, "failed to pull ride_requests")
	}

	if err := store.db.Order("transaction_id").
		Find(&snapshot.Transactions).Error; err != nil {
		return nil, errors.Wrap(err, "failed to pull transactions")
	}

	if err := store.db.Order("review_id").
		Find(&snapshot.Reviews).Error; err != nil {
		return nil, errors.Wrap(err, "failed to pull reviews")
	}

	log.WithFields(log.Fields{
		"prefix":        pullSnapshotTag,
		"snapshot_id":   snapshot.ID,
		"downloads":     len(snapshot.Downloads),
		"signups":       len(snapshot.Signups),
		"ride_requests": len(snapshot.RideRequests),
		"transactions":  len(snapshot.Transactions),
		"reviews":       len(snapshot.Reviews),
		"took":          time.Since(startTime),
	}).Info("Pulled snapshot.")

	return snapshot, nil
}
