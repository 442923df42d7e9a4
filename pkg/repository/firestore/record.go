package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"google.golang.org/api/iterator"
)

const (
	recordsCollection     = "records"
	aiExchangesCollection = "ai_exchanges"
)

type recordDoc struct {
	Content       string    `firestore:"content"`
	Author        string    `firestore:"author"`
	AttachmentURL string    `firestore:"attachmentUrl,omitempty"`
	CreatedAt     time.Time `firestore:"createdAt"`
}

type recordRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.RecordRepository = &recordRepository{}

func newRecordRepository(client *firestore.Client) *recordRepository {
	return &recordRepository{client: client}
}

func (r *recordRepository) collection(caseID model.CaseID) *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, casesCollection)).
		Doc(string(caseID)).
		Collection(recordsCollection)
}

func (r *recordRepository) Create(ctx context.Context, record *model.Record) (*model.Record, error) {
	created := *record
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	ref := r.collection(record.CaseID).NewDoc()
	created.ID = model.RecordID(ref.ID)

	if _, err := ref.Create(ctx, &recordDoc{
		Content:       created.Content,
		Author:        created.Author,
		AttachmentURL: created.AttachmentURL,
		CreatedAt:     created.CreatedAt,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to create record", goerr.V(model.CaseIDKey, record.CaseID))
	}

	return &created, nil
}

func (r *recordRepository) List(ctx context.Context, caseID model.CaseID) ([]*model.Record, error) {
	iter := r.collection(caseID).OrderBy("createdAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var records []*model.Record
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate records", goerr.V(model.CaseIDKey, caseID))
		}

		var doc recordDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode record", goerr.V("doc_id", snap.Ref.ID))
		}
		records = append(records, &model.Record{
			ID:            model.RecordID(snap.Ref.ID),
			CaseID:        caseID,
			Content:       doc.Content,
			Author:        doc.Author,
			AttachmentURL: doc.AttachmentURL,
			CreatedAt:     doc.CreatedAt,
		})
	}

	return records, nil
}

type aiExchangeDoc struct {
	Prompt    string    `firestore:"prompt"`
	Response  string    `firestore:"response"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type aiExchangeRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.AIExchangeRepository = &aiExchangeRepository{}

func newAIExchangeRepository(client *firestore.Client) *aiExchangeRepository {
	return &aiExchangeRepository{client: client}
}

func (r *aiExchangeRepository) collection(caseID model.CaseID) *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, casesCollection)).
		Doc(string(caseID)).
		Collection(aiExchangesCollection)
}

func (r *aiExchangeRepository) Create(ctx context.Context, exchange *model.AIExchange) (*model.AIExchange, error) {
	created := *exchange
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	ref := r.collection(exchange.CaseID).NewDoc()
	created.ID = model.AIExchangeID(ref.ID)

	if _, err := ref.Create(ctx, &aiExchangeDoc{
		Prompt:    created.Prompt,
		Response:  created.Response,
		CreatedAt: created.CreatedAt,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to create AI exchange", goerr.V(model.CaseIDKey, exchange.CaseID))
	}

	return &created, nil
}

func (r *aiExchangeRepository) List(ctx context.Context, caseID model.CaseID) ([]*model.AIExchange, error) {
	iter := r.collection(caseID).OrderBy("createdAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var exchanges []*model.AIExchange
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate AI exchanges", goerr.V(model.CaseIDKey, caseID))
		}

		var doc aiExchangeDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode AI exchange", goerr.V("doc_id", snap.Ref.ID))
		}
		exchanges = append(exchanges, &model.AIExchange{
			ID:        model.AIExchangeID(snap.Ref.ID),
			CaseID:    caseID,
			Prompt:    doc.Prompt,
			Response:  doc.Response,
			CreatedAt: doc.CreatedAt,
		})
	}

	return exchanges, nil
}
