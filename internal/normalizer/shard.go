package normalizer

import (
	"context"

	"github.com/seekmark/seekmark/internal/model"
)

// SplitAndProcess normalizes content and splits it into shards whose
// normalized byte size stays within the shard budget. Splitting bisects the
// raw text at its character midpoint and extends the left half past the cut
// by the overlap window, so matches spanning a boundary survive. The title is
// normalized once and attached to every shard.
func (n *Normalizer) SplitAndProcess(ctx context.Context, bookmarkID int64, title, content string) ([]model.LexicalShard, error) {
	normTitle, err := n.Normalize(ctx, title)
	if err != nil {
		return nil, err
	}
	var shards []model.LexicalShard
	var split func(raw string) error
	split = func(raw string) error {
		norm, err := n.Normalize(ctx, raw)
		if err != nil {
			return err
		}
		runes := []rune(raw)
		if len(norm) <= n.cfg.ShardByteBudget || len(runes) < 2 {
			shards = append(shards, model.LexicalShard{
				BookmarkID: bookmarkID,
				ShardIdx:   len(shards),
				Title:      normTitle,
				Content:    norm,
				RawTitle:   title,
				RawContent: raw,
			})
			return nil
		}
		mid := len(runes) / 2
		leftEnd := mid + n.cfg.ShardOverlapChars
		if leftEnd >= len(runes) {
			// Overlap would swallow the right half; fall back to a clean cut.
			leftEnd = mid
		}
		if err := split(string(runes[:leftEnd])); err != nil {
			return err
		}
		return split(string(runes[mid:]))
	}
	if err := split(content); err != nil {
		return nil, err
	}
	return shards, nil
}
