package storage

import "poolsim/internal/model"

// Storage is a sink for pool snapshots.
type Storage interface {
	PutSnapshots(snapshots []model.PoolSnapshot) error
}
