package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/booktrade/backend/api/responses"
	"github.com/booktrade/backend/api/validators"
	"github.com/booktrade/backend/internal/offers"
	"github.com/booktrade/backend/pkg/enums"
	pkgerrors "github.com/booktrade/backend/pkg/errors"
	"github.com/booktrade/backend/pkg/logger"
)

type submitOfferRequest struct {
	Price   decimal.Decimal `json:"price" validate:"required"`
	Message *string         `json:"message,omitempty"`
}

type respondOfferRequest struct {
	Decision     string           `json:"decision" validate:"required"`
	CounterPrice *decimal.Decimal `json:"counter_price,omitempty"`
	Message      *string          `json:"message,omitempty"`
}

type counterResponseRequest struct {
	Decision     string           `json:"decision" validate:"required"`
	CounterPrice *decimal.Decimal `json:"counter_price,omitempty"`
	Message      *string          `json:"message,omitempty"`
}

// SubmitOffer opens a negotiation on a listing.
func SubmitOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buyerID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		postID, err := pathUUID(r, "postID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body submitOfferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Submit(r.Context(), offers.SubmitInput{
			SellPostID: postID,
			BuyerID:    buyerID,
			Price:      body.Price,
			Message:    body.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, offer)
	}
}

// GetOffer returns one offer, visible only to its parties.
func GetOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offerID, err := pathUUID(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Get(r.Context(), offerID, actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

// RespondToOffer records the seller's accept/reject/counter decision.
func RespondToOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offerID, err := pathUUID(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body respondOfferRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, ok := enums.ParseOfferDecision(body.Decision)
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid decision").WithDetails(map[string]any{"decision": body.Decision}))
			return
		}

		offer, err := svc.Respond(r.Context(), offers.RespondInput{
			OfferID:         offerID,
			ActorID:         actorID,
			Decision:        decision,
			CounterPrice:    body.CounterPrice,
			ResponseMessage: body.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

// RespondToCounter records the buyer's decision on a countered offer.
func RespondToCounter(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offerID, err := pathUUID(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body counterResponseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		decision, ok := enums.ParseOfferDecision(body.Decision)
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid decision").WithDetails(map[string]any{"decision": body.Decision}))
			return
		}

		offer, err := svc.RespondToCounter(r.Context(), offers.CounterResponseInput{
			OfferID:         offerID,
			ActorID:         actorID,
			Decision:        decision,
			CounterPrice:    body.CounterPrice,
			ResponseMessage: body.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

// WithdrawOffer lets a buyer retract a pending offer.
func WithdrawOffer(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offerID, err := pathUUID(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Withdraw(r.Context(), offers.WithdrawInput{
			OfferID: offerID,
			ActorID: actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, offer)
	}
}

// ListPostOffers returns the offer book for a listing, seller only.
func ListPostOffers(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		postID, err := pathUUID(r, "postID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListForPost(r.Context(), postID, actorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListMyOffers returns the caller's offers, as buyer by default or as
// seller with ?role=seller.
func ListMyOffers(svc offers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var result *offers.OfferList
		switch role := r.URL.Query().Get("role"); role {
		case "", "buyer":
			result, err = svc.ListForBuyer(r.Context(), userID, params)
		case "seller":
			result, err = svc.ListForSeller(r.Context(), userID, params)
		default:
			err = pkgerrors.New(pkgerrors.CodeValidation, "role must be buyer or seller")
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
