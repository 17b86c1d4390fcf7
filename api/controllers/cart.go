package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foliobooks/bookstore-backend/api/responses"
	"github.com/foliobooks/bookstore-backend/api/validators"
	cartsvc "github.com/foliobooks/bookstore-backend/internal/cart"
	"github.com/foliobooks/bookstore-backend/pkg/enums"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
)

type addCartItemRequest struct {
	ISBN string `json:"isbn" validate:"required"`
	Qty  int    `json:"qty" validate:"required,min=1"`
}

type updateCartItemRequest struct {
	Qty int `json:"qty"`
}

type setShippingRequest struct {
	Method string `json:"method" validate:"required,oneof=standard express"`
}

// CartFetch returns the customer's cart with a fresh pricing quote.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.GetCart(ctx, customerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartAddItem adds a line or merges quantity into an existing line.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body addCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.AddItem(ctx, customerID, validators.NormalizeISBN(body.ISBN), body.Qty)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeCart(w, dto)
	}
}

// CartUpdateItem sets the absolute quantity of a line. Zero removes it.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		isbn := validators.NormalizeISBN(chi.URLParam(r, "isbn"))
		if isbn == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "isbn is required"))
			return
		}

		var body updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.SetQuantity(ctx, customerID, isbn, body.Qty)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		writeCart(w, dto)
	}
}

// CartRemoveItem deletes a line outright; removing a missing line is a no-op.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		isbn := validators.NormalizeISBN(chi.URLParam(r, "isbn"))
		if isbn == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "isbn is required"))
			return
		}

		dto, err := svc.RemoveItem(ctx, customerID, isbn)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartSetShipping switches the delivery option and reprices the cart.
func CartSetShipping(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body setShippingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		method, err := enums.ParseShippingMethod(body.Method)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping method"))
			return
		}

		dto, err := svc.SetShippingMethod(ctx, customerID, method)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// CartClear empties the cart but keeps its identity and shipping choice.
func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Clear(ctx, customerID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

// Refused quantities come back as a conflict on the cart projection rather
// than an error, so the client still sees the unchanged cart.
func writeCart(w http.ResponseWriter, dto *cartsvc.CartDTO) {
	if dto != nil && dto.Conflict != nil {
		responses.WriteSuccessStatus(w, http.StatusConflict, dto)
		return
	}
	responses.WriteSuccess(w, dto)
}
