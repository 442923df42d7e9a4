package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/domain/model"
)

func runRecordRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("records are listed newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		c, err := repo.Case().Create(ctx, newCase("records"), ptr(int64(1)))
		gt.NoError(t, err).Required()

		base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
		for i, content := range []string{"first", "second", "third"} {
			_, err := repo.Record().Create(ctx, &model.Record{
				CaseID:    c.ID,
				Content:   content,
				Author:    "担当者",
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			})
			gt.NoError(t, err).Required()
		}

		records, err := repo.Record().List(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, records).Length(3).Required()
		gt.Value(t, records[0].Content).Equal("third")
		gt.Value(t, records[2].Content).Equal("first")
		gt.Value(t, records[0].CaseID).Equal(c.ID)
		gt.String(t, string(records[0].ID)).NotEqual("")
	})

	t.Run("records are scoped to the case", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a, err := repo.Case().Create(ctx, newCase("a"), ptr(int64(1)))
		gt.NoError(t, err).Required()
		b, err := repo.Case().Create(ctx, newCase("b"), ptr(int64(2)))
		gt.NoError(t, err).Required()

		_, err = repo.Record().Create(ctx, &model.Record{CaseID: a.ID, Content: "only a"})
		gt.NoError(t, err).Required()

		records, err := repo.Record().List(ctx, b.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, records).Length(0)
	})

	t.Run("AI exchanges are listed oldest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		c, err := repo.Case().Create(ctx, newCase("ai"), ptr(int64(1)))
		gt.NoError(t, err).Required()

		base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
		for i, q := range []string{"q1", "q2"} {
			_, err := repo.AIExchange().Create(ctx, &model.AIExchange{
				CaseID:    c.ID,
				Prompt:    q,
				Response:  "answer to " + q,
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
			})
			gt.NoError(t, err).Required()
		}

		exchanges, err := repo.AIExchange().List(ctx, c.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, exchanges).Length(2).Required()
		gt.Value(t, exchanges[0].Prompt).Equal("q1")
		gt.Value(t, exchanges[1].Response).Equal("answer to q2")
	})
}

func TestRecordRepository(t *testing.T) {
	runAll(t, runRecordRepositoryTest)
}
