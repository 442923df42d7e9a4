package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/intake/pkg/domain/model"
	"github.com/secmon-lab/intake/pkg/usecase"
)

func caseIDParam(r *http.Request) model.CaseID {
	return model.CaseID(chi.URLParam(r, "caseID"))
}

func createCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input usecase.CreateCaseInput
		if err := decodeJSON(w, r, &input); err != nil {
			writeError(w, r, err)
			return
		}

		created, err := uc.CreateCase(r.Context(), input)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusCreated, toCaseResponse(created))
	}
}

func listCasesHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := usecase.CaseFilter{
			Status:   q.Get("status"),
			Assignee: q.Get("assignee"),
			Sort:     q.Get("sort"),
		}

		if mine := q.Get("mine"); mine != "" {
			v, err := strconv.ParseBool(mine)
			if err != nil {
				writeError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "mine must be a boolean", goerr.V("mine", mine)))
				return
			}
			filter.Mine = v
		}
		if limit := q.Get("limit"); limit != "" {
			n, err := strconv.Atoi(limit)
			if err != nil || n < 0 {
				writeError(w, r, goerr.Wrap(usecase.ErrInvalidInput, "limit must be a non-negative integer", goerr.V("limit", limit)))
				return
			}
			filter.Limit = n
		}

		cases, err := uc.ListCases(r.Context(), filter)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, map[string]any{"cases": toCaseResponses(cases)})
	}
}

func getCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := uc.GetCase(r.Context(), caseIDParam(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toCaseResponse(c))
	}
}

func updateCaseHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input usecase.UpdateCaseInput
		if err := decodeJSON(w, r, &input); err != nil {
			writeError(w, r, err)
			return
		}

		c, err := uc.UpdateCase(r.Context(), caseIDParam(r), input)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toCaseResponse(c))
	}
}

func updateStatusHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	type request struct {
		Status string `json:"status"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		c, err := uc.UpdateStatus(r.Context(), caseIDParam(r), req.Status)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toCaseResponse(c))
	}
}

func toggleAssigneeHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	type request struct {
		Email string `json:"email"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		c, err := uc.ToggleAssignee(r.Context(), caseIDParam(r), req.Email)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toCaseResponse(c))
	}
}

func assignToMeHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := uc.AssignToMe(r.Context(), caseIDParam(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toCaseResponse(c))
	}
}

func updateScheduleHandler(uc *usecase.CaseUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input usecase.ScheduleInput
		if err := decodeJSON(w, r, &input); err != nil {
			writeError(w, r, err)
			return
		}

		c, err := uc.UpdateSchedule(r.Context(), caseIDParam(r), input)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toCaseResponse(c))
	}
}

// provisionHandler retries document provisioning. ?force=true redoes an
// already provisioned case.
func provisionHandler(uc *usecase.DispatchUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		force, _ := strconv.ParseBool(r.URL.Query().Get("force"))

		c, err := uc.RetryProvisioning(r.Context(), caseIDParam(r), force)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(r.Context(), w, http.StatusOK, toCaseResponse(c))
	}
}
