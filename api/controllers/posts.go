package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/booktrade/backend/api/middleware"
	"github.com/booktrade/backend/api/responses"
	"github.com/booktrade/backend/api/validators"
	"github.com/booktrade/backend/internal/listings"
	"github.com/booktrade/backend/pkg/enums"
	pkgerrors "github.com/booktrade/backend/pkg/errors"
	"github.com/booktrade/backend/pkg/logger"
	"github.com/booktrade/backend/pkg/pagination"
)

type createPostRequest struct {
	Title       string          `json:"title" validate:"required"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Condition   string          `json:"condition" validate:"required"`
	Negotiable  bool            `json:"negotiable"`
	Tags        []string        `json:"tags,omitempty" validate:"max=10,dive,max=40"`
	ExpiresAt   *time.Time      `json:"expires_at,omitempty"`
}

type markSoldRequest struct {
	BuyerID   *uuid.UUID       `json:"buyer_id,omitempty"`
	SoldPrice *decimal.Decimal `json:"sold_price,omitempty"`
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

func requireUser(r *http.Request) (uuid.UUID, error) {
	id := middleware.UserUUIDFromContext(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	return id, nil
}

func paginationParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// CreatePost publishes a new listing owned by the authenticated user.
func CreatePost(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createPostRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		condition, ok := enums.ParseItemCondition(body.Condition)
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid condition").WithDetails(map[string]any{"condition": body.Condition}))
			return
		}

		post, err := svc.Create(r.Context(), listings.CreateInput{
			SellerID:    sellerID,
			Title:       body.Title,
			Description: body.Description,
			Price:       body.Price,
			Condition:   condition,
			Negotiable:  body.Negotiable,
			Tags:        body.Tags,
			ExpiresAt:   body.ExpiresAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, post)
	}
}

// GetPost returns one listing by id.
func GetPost(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "postID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		post, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, post)
	}
}

// ListPosts browses listings with optional status/condition/seller filters.
func ListPosts(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters listings.ListFilters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, ok := enums.ParseSellPostStatus(raw)
			if !ok {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("condition")); raw != "" {
			condition, ok := enums.ParseItemCondition(raw)
			if !ok {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "invalid condition filter"))
				return
			}
			filters.Condition = &condition
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("seller_id")); raw != "" {
			sellerID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "invalid seller id filter"))
				return
			}
			filters.SellerID = &sellerID
		}

		result, err := svc.List(r.Context(), filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// MarkPostSold closes a listing outside the offer flow.
func MarkPostSold(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "postID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body markSoldRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		post, err := svc.MarkSold(r.Context(), listings.MarkSoldInput{
			SellPostID: id,
			ActorID:    actorID,
			BuyerID:    body.BuyerID,
			SoldPrice:  body.SoldPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, post)
	}
}

type postTransition func(svc listings.Service, r *http.Request, input listings.TransitionInput) (any, error)

func transitionHandler(svc listings.Service, logg *logger.Logger, apply postTransition) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "postID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := apply(svc, r, listings.TransitionInput{SellPostID: id, ActorID: actorID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// HidePost pulls a listing from public browse.
func HidePost(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc listings.Service, r *http.Request, input listings.TransitionInput) (any, error) {
		return svc.Hide(r.Context(), input)
	})
}

// UnhidePost restores a hidden listing to AVAILABLE.
func UnhidePost(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc listings.Service, r *http.Request, input listings.TransitionInput) (any, error) {
		return svc.Unhide(r.Context(), input)
	})
}

// RelistPost returns an expired or pending listing to AVAILABLE.
func RelistPost(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc listings.Service, r *http.Request, input listings.TransitionInput) (any, error) {
		return svc.MarkAvailable(r.Context(), input)
	})
}

// MarkPostPending flags a listing as reserved while a sale settles.
func MarkPostPending(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return transitionHandler(svc, logg, func(svc listings.Service, r *http.Request, input listings.TransitionInput) (any, error) {
		return svc.MarkPending(r.Context(), input)
	})
}
