package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/repository/memory"
)

func TestCreate_AllocationConflict(t *testing.T) {
	t.Run("retries until an attempt commits", func(t *testing.T) {
		var attempts []int
		repo := memory.New(
			memory.WithInitialCounter(10),
			memory.WithAllocationConflict(3, func(attempt int) bool {
				attempts = append(attempts, attempt)
				return attempt < 3
			}),
		)
		ctx := context.Background()

		created, err := repo.Case().Create(ctx, &model.Case{Name: "山田"}, nil)
		gt.NoError(t, err).Required()
		gt.Value(t, created.CaseNumber).Equal(int64(11))
		gt.Array(t, attempts).Equal([]int{1, 2, 3})

		counter, err := repo.Case().GetCounter(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, counter).Equal(int64(11))
	})

	t.Run("exhausted retry budget persists nothing", func(t *testing.T) {
		repo := memory.New(
			memory.WithInitialCounter(10),
			memory.WithAllocationConflict(5, func(int) bool { return true }),
		)
		ctx := context.Background()

		_, err := repo.Case().Create(ctx, &model.Case{Name: "山田"}, nil)
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, model.ErrAllocation)).True()
		gt.Bool(t, errors.Is(err, model.ErrCounterNotFound)).False()

		cases, err := repo.Case().List(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, cases).Length(0)

		counter, err := repo.Case().GetCounter(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, counter).Equal(int64(10))
	})

	t.Run("manual numbers skip the allocation transaction", func(t *testing.T) {
		repo := memory.New(
			memory.WithInitialCounter(10),
			memory.WithAllocationConflict(1, func(int) bool { return true }),
		)

		manual := int64(3)
		created, err := repo.Case().Create(context.Background(), &model.Case{Name: "佐藤"}, &manual)
		gt.NoError(t, err).Required()
		gt.Value(t, created.CaseNumber).Equal(int64(3))
	})
}
