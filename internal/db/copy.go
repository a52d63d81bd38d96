package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/gyeh/vobstats/internal/model"
)

// ChannelSource implements pgx.CopyFromSource over a channel of
// ReimbursementRows, giving backpressure between the Parquet reader and COPY.
// A cancelled context ends the copy with ctx.Err().
type ChannelSource struct {
	ctx     context.Context
	ch      <-chan *model.ReimbursementRow
	current *model.ReimbursementRow
	err     error
}

func NewChannelSource(ctx context.Context, ch <-chan *model.ReimbursementRow) *ChannelSource {
	return &ChannelSource{ctx: ctx, ch: ch}
}

// Next advances to the next row. Returns false when the channel is closed
// or the context is done.
func (s *ChannelSource) Next() bool {
	select {
	case row, ok := <-s.ch:
		if !ok {
			return false
		}
		s.current = row
		return true
	case <-s.ctx.Done():
		s.err = s.ctx.Err()
		return false
	}
}

// Values returns the current row in ReimbursementColumns order.
func (s *ChannelSource) Values() ([]any, error) {
	return s.current.CopyValues(), nil
}

func (s *ChannelSource) Err() error {
	return s.err
}

var _ pgx.CopyFromSource = (*ChannelSource)(nil)
