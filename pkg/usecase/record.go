package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/interfaces"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/service/storage"
)

// Attachment is a file uploaded together with a record
type Attachment struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

type RecordUseCase struct {
	repo    interfaces.Repository
	staff   *StaffUseCase
	storage storage.Service
}

func NewRecordUseCase(repo interfaces.Repository, staff *StaffUseCase, storageSvc storage.Service) *RecordUseCase {
	return &RecordUseCase{
		repo:    repo,
		staff:   staff,
		storage: storageSvc,
	}
}

// AddRecord appends a progress note to the case. The author is resolved
// from the authenticated user. attachment may be nil.
func (uc *RecordUseCase) AddRecord(ctx context.Context, caseID model.CaseID, content string, attachment *Attachment) (*model.Record, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, goerr.Wrap(ErrInvalidInput, "record content is required", goerr.V(FieldKey, "content"))
	}

	if _, err := uc.repo.Case().Get(ctx, caseID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(ErrCaseNotFound, "case not found", goerr.V(model.CaseIDKey, caseID))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V(model.CaseIDKey, caseID))
	}

	author, err := uc.staff.DisplayName(ctx)
	if err != nil {
		return nil, err
	}

	record := &model.Record{
		CaseID:  caseID,
		Content: content,
		Author:  author,
	}

	if attachment != nil {
		if uc.storage == nil {
			return nil, goerr.Wrap(ErrStorageDisabled, "attachment rejected", goerr.V(model.CaseIDKey, caseID))
		}

		name := fmt.Sprintf("cases/%s/%s_%s", caseID, uuid.NewString(), path.Base(attachment.FileName))
		url, err := uc.storage.Upload(ctx, name, attachment.ContentType, attachment.Body)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to upload attachment",
				goerr.V(model.CaseIDKey, caseID),
				goerr.V("file_name", attachment.FileName))
		}
		record.AttachmentURL = url
	}

	created, err := uc.repo.Record().Create(ctx, record)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create record", goerr.V(model.CaseIDKey, caseID))
	}
	return created, nil
}

// ListRecords returns the records of a case, newest first
func (uc *RecordUseCase) ListRecords(ctx context.Context, caseID model.CaseID) ([]*model.Record, error) {
	records, err := uc.repo.Record().List(ctx, caseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list records", goerr.V(model.CaseIDKey, caseID))
	}
	return records, nil
}
