package csvstore

import (
	"context"

	"wsbpanel/internal/domain/sentiment"
	"wsbpanel/pkg/logger"
)

// Compile-time check
var _ sentiment.LabelSource = (*LabelFile)(nil)

// LabelFile reads the labeler's output: a copy of a dataset with an added
// consensus_score column, keyed by "id" (posts) or "comment_id" (comments)
type LabelFile struct {
	path string
}

// NewLabelFile creates a label source over path
func NewLabelFile(path string) *LabelFile {
	return &LabelFile{path: path}
}

// LoadLabels returns record id → label. Unknown label values load as LabelNone.
func (l *LabelFile) LoadLabels(ctx context.Context) (map[string]sentiment.Label, error) {
	labels := make(map[string]sentiment.Label)
	unlabeled := 0

	err := readTable(l.path, ',', []string{"consensus_score"}, func(r record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := r.first("comment_id", "id")
		if id == "" {
			return nil
		}
		label := sentiment.ParseLabel(r.get("consensus_score"))
		if label == sentiment.LabelNone {
			unlabeled++
		}
		labels[id] = label
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("Loaded labels", "file", l.path, "labels", len(labels), "unlabeled", unlabeled)
	return labels, nil
}
