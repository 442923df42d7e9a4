package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const staffCollection = "staff"

type staffRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.StaffRepository = &staffRepository{}

func newStaffRepository(client *firestore.Client) *staffRepository {
	return &staffRepository{client: client}
}

// staffDoc is the Firestore persistence model. The document ID is the email.
type staffDoc struct {
	Email       string    `firestore:"email"`
	Name        string    `firestore:"name"`
	SlackUserID string    `firestore:"slackUserId"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

func (r *staffRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, staffCollection))
}

func fromStaffDoc(doc *staffDoc) *model.Staff {
	return &model.Staff{
		Email:       doc.Email,
		Name:        doc.Name,
		SlackUserID: doc.SlackUserID,
		UpdatedAt:   doc.UpdatedAt,
	}
}

func (r *staffRepository) GetAll(ctx context.Context) ([]*model.Staff, error) {
	iter := r.collection().OrderBy("email", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var staff []*model.Staff
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate staff")
		}

		var doc staffDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal staff", goerr.V("docID", snap.Ref.ID))
		}
		staff = append(staff, fromStaffDoc(&doc))
	}

	return staff, nil
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*model.Staff, error) {
	snap, err := r.collection().Doc(email).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get staff", goerr.V("email", email))
	}

	var doc staffDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal staff", goerr.V("email", email))
	}
	return fromStaffDoc(&doc), nil
}

// SaveMany upserts staff. BulkWriter splits into batches internally.
func (r *staffRepository) SaveMany(ctx context.Context, staff []*model.Staff) error {
	if len(staff) == 0 {
		return nil
	}

	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	for _, s := range staff {
		doc := &staffDoc{
			Email:       s.Email,
			Name:        s.Name,
			SlackUserID: s.SlackUserID,
			UpdatedAt:   s.UpdatedAt,
		}
		if _, err := bulkWriter.Set(r.collection().Doc(s.Email), doc); err != nil {
			return goerr.Wrap(err, "failed to add Set operation to bulk writer", goerr.V("email", s.Email))
		}
	}

	bulkWriter.Flush()
	return nil
}

func (r *staffRepository) DeleteAll(ctx context.Context) error {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate staff for deletion")
		}
		refs = append(refs, snap.Ref)
	}

	if len(refs) == 0 {
		return nil
	}

	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	for _, ref := range refs {
		if _, err := bulkWriter.Delete(ref); err != nil {
			return goerr.Wrap(err, "failed to add Delete operation to bulk writer")
		}
	}

	bulkWriter.Flush()
	return nil
}
