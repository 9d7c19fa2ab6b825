// Package job holds the cron jobs run by the web server.
package job

import (
	"github.com/agriintel/agri-intel/database"
	"github.com/agriintel/agri-intel/logger"
	"github.com/agriintel/agri-intel/util/common"
)

// CheckpointJob folds the sqlite write-ahead log back into the database file.
type CheckpointJob struct {
	checkpoint func() error
}

func NewCheckpointJob() *CheckpointJob {
	return &CheckpointJob{checkpoint: database.Checkpoint}
}

// Here Run is an interface method of the Job interface
func (j *CheckpointJob) Run() {
	defer common.Recover("checkpoint job")
	if err := j.checkpoint(); err != nil {
		logger.Warning("checkpoint job err:", err)
		return
	}
	logger.Debug("database checkpoint done")
}
