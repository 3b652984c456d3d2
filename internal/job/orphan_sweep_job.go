package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/seekmark/seekmark/internal/repo"
)

// OrphanSweepJob removes vector chunks whose bookmark lost its shard
// assignment, e.g. after a removal that died between the two stores.
type OrphanSweepJob struct {
	vectors *repo.VectorRepo
}

func NewOrphanSweepJob(vectors *repo.VectorRepo) *OrphanSweepJob {
	return &OrphanSweepJob{vectors: vectors}
}

func (j *OrphanSweepJob) Name() string {
	return "vector_orphan_sweep"
}

func (j *OrphanSweepJob) Run(ctx context.Context) error {
	if j.vectors == nil {
		return nil
	}
	var total int64
	for i := 0; i < j.vectors.ShardCount(); i++ {
		deleted, err := j.vectors.DeleteUnassigned(ctx, i)
		if err != nil {
			return err
		}
		total += deleted
	}
	if total > 0 {
		logutil.GetLogger(ctx).Info("orphaned vector chunks removed", zap.Int64("count", total))
	}
	return nil
}
