package http

import (
	"errors"
	"mime"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/usecase"
	"github.com/secmon-lab/intake/pkg/utils/safe"
)

func listRecordsHandler(uc *usecase.RecordUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := uc.ListRecords(r.Context(), caseIDParam(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := make([]*recordResponse, len(records))
		for i, rec := range records {
			resp[i] = toRecordResponse(rec)
		}
		writeJSON(r.Context(), w, http.StatusOK, map[string]any{"records": resp})
	}
}

// addRecordHandler accepts either a JSON body {"content": ...} or a
// multipart form with a content field and an optional file field
func addRecordHandler(uc *usecase.RecordUseCase, maxUploadSize int64) http.HandlerFunc {
	type request struct {
		Content string `json:"content"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			content    string
			attachment *usecase.Attachment
		)

		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "multipart/form-data" {
			r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
			if err := r.ParseMultipartForm(maxUploadSize); err != nil {
				writeError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "malformed multipart body", goerr.V("error", err.Error())))
				return
			}
			content = r.FormValue("content")

			file, header, err := r.FormFile("file")
			switch {
			case errors.Is(err, http.ErrMissingFile):
			case err != nil:
				writeError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "failed to read attachment", goerr.V("error", err.Error())))
				return
			default:
				defer safe.Close(r.Context(), file)
				attachment = &usecase.Attachment{
					FileName:    header.Filename,
					ContentType: header.Header.Get("Content-Type"),
					Body:        file,
				}
			}
		} else {
			var req request
			if err := decodeJSON(w, r, &req); err != nil {
				writeError(w, r, err)
				return
			}
			content = req.Content
		}

		record, err := uc.AddRecord(r.Context(), caseIDParam(r), content, attachment)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, toRecordResponse(record))
	}
}

func listExchangesHandler(uc *usecase.AssistantUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exchanges, err := uc.ListExchanges(r.Context(), caseIDParam(r))
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := make([]*exchangeResponse, len(exchanges))
		for i, e := range exchanges {
			resp[i] = toExchangeResponse(e)
		}
		writeJSON(r.Context(), w, http.StatusOK, map[string]any{"exchanges": resp})
	}
}

func askHandler(uc *usecase.AssistantUseCase) http.HandlerFunc {
	type request struct {
		Question string `json:"question"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		exchange, err := uc.Ask(r.Context(), caseIDParam(r), req.Question)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, toExchangeResponse(exchange))
	}
}
