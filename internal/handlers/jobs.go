package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/thedigitalgifter/gifter/internal/apperrors"
	"github.com/thedigitalgifter/gifter/internal/handlers/render"
	"github.com/thedigitalgifter/gifter/internal/handlers/userctx"
	"github.com/thedigitalgifter/gifter/internal/logger"
	"github.com/thedigitalgifter/gifter/internal/models"
	"github.com/thedigitalgifter/gifter/internal/service/credits"
)

type jobResponse struct {
	ID        uuid.UUID       `json:"id"`
	Kind      string          `json:"kind"`
	Template  string          `json:"template"`
	Status    string          `json:"status"`
	Debited   int64           `json:"debited"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	ResultURL *string         `json:"result_url,omitempty"`
	Failure   *string         `json:"failure,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func jobToResponse(j models.Job) jobResponse {
	return jobResponse{
		ID:        j.ID,
		Kind:      j.Kind,
		Template:  j.Template,
		Status:    j.Status,
		Debited:   j.Debited,
		Payload:   j.Payload,
		ResultURL: j.ResultURL,
		Failure:   j.Failure,
		CreatedAt: j.CreatedAt,
	}
}

func handleCreateJob(creditsService creditsService, l logger.Logger) http.Handler {
	type request struct {
		Kind     string          `json:"kind" validate:"required,oneof=card video"`
		Template string          `json:"template" validate:"required"`
		Cost     int64           `json:"cost" validate:"min=0"`
		Payload  json.RawMessage `json:"payload"`
	}

	type response struct {
		Job     jobResponse `json:"job"`
		Balance int64       `json:"balance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		job, profile, err := creditsService.DebitAndCreateJob(r.Context(), userID, req.Cost, credits.JobParams{
			Kind:     req.Kind,
			Template: req.Template,
			Payload:  req.Payload,
		})

		switch {
		case err == nil:
			render.JSONWithStatus(w, response{Job: jobToResponse(job), Balance: profile.Balance}, http.StatusAccepted)
		case errors.Is(err, apperrors.ErrInsufficientCredits):
			render.ServiceError(w, "Insufficient credits", http.StatusPaymentRequired)
		case errors.Is(err, apperrors.ErrProfileNotFound):
			render.ServiceError(w, "No credit profile, purchase credits first", http.StatusNotFound)
		default:
			l.Error("Failed to create job", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleListJobs(jobService jobService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		jobs, err := jobService.ListUserJobs(r.Context(), userID)

		switch err {
		case nil:
			responses := make([]jobResponse, 0, len(jobs))
			for _, j := range jobs {
				responses = append(responses, jobToResponse(j))
			}
			render.JSON(w, responses)
		default:
			l.Error("Failed to list jobs", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleGetJob(jobService jobService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		jobID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid job id", http.StatusBadRequest)
			return
		}

		job, err := jobService.GetUserJob(r.Context(), jobID, userID)

		switch {
		case err == nil:
			render.JSON(w, jobToResponse(job))
		case errors.Is(err, apperrors.ErrJobNotFound):
			render.ServiceError(w, "Job not found", http.StatusNotFound)
		default:
			l.Error("Failed to get job", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
