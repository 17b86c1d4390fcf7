package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/foliobooks/bookstore-backend/api/responses"
	"github.com/foliobooks/bookstore-backend/api/validators"
	"github.com/foliobooks/bookstore-backend/internal/favorites"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
	"github.com/foliobooks/bookstore-backend/pkg/pagination"
)

type addFavoriteRequest struct {
	ISBN string `json:"isbn" validate:"required"`
}

// FavoritesList returns the paginated favorites shelf with catalog details.
func FavoritesList(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListFavorites(ctx, customerID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// FavoritesIDs returns only the liked ISBNs, for cheap client-side badges.
func FavoritesIDs(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListFavoriteISBNs(ctx, customerID, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// FavoritesAdd marks a book as liked; repeating the call is a no-op.
func FavoritesAdd(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}

		customerID, err := customerIDFromContext(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body addFavoriteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.AddItem(ctx, customerID, validators.NormalizeISBN(body.ISBN)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"added": true})
	}
}

// FavoritesRemove unmarks a book; removing an absent favorite succeeds.
func FavoritesRemove(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
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

		if err := svc.RemoveItem(ctx, customerID, isbn); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"removed": true})
	}
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
