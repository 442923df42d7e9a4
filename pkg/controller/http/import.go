package http

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/model/auth"
	"github.com/secmon-lab/intake/pkg/usecase"
	"github.com/secmon-lab/intake/pkg/utils/safe"
)

// importHandler takes a multipart upload in field "file". The format comes
// from ?format= or the file extension.
func importHandler(uc *usecase.ImportUseCase, maxUploadSize int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "malformed multipart body", goerr.V("error", err.Error())))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "file is required", goerr.V("error", err.Error())))
			return
		}
		defer safe.Close(r.Context(), file)

		format := usecase.ImportFormat(r.URL.Query().Get("format"))
		if format == "" {
			format, err = usecase.ImportFormatFromFileName(header.Filename)
			if err != nil {
				writeError(w, r, err)
				return
			}
		}

		result, err := uc.Import(r.Context(), file, format)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, &importResponse{
			Count:   result.Count,
			Skipped: result.Skipped,
		})
	}
}

func meHandler(authn usecase.Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.UserFromContext(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, &userMeResponse{
			Sub:     user.Subject,
			Email:   user.Email,
			Name:    user.Name,
			NoAuthn: authn.IsNoAuthn(),
		})
	}
}

func listStaffHandler(uc *usecase.StaffUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		staff, err := uc.ListStaff(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}

		resp := make([]*staffResponse, len(staff))
		for i, s := range staff {
			resp[i] = &staffResponse{
				Email:       s.Email,
				Name:        s.Name,
				SlackUserID: s.SlackUserID,
			}
		}
		writeJSON(r.Context(), w, http.StatusOK, map[string]any{"staff": resp})
	}
}
