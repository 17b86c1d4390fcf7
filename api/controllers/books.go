package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/foliobooks/bookstore-backend/api/responses"
	"github.com/foliobooks/bookstore-backend/api/validators"
	"github.com/foliobooks/bookstore-backend/internal/catalog"
	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/logger"
	"github.com/foliobooks/bookstore-backend/pkg/pagination"
)

// BookList returns a cursor-paginated page of the catalog.
func BookList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		page, err := svc.ListBooks(ctx, catalog.ListInput{
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			Limit:  limit,
			Query:  validators.SanitizeString(r.URL.Query().Get("q"), 120),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// BookDetail returns one catalog entry by ISBN.
func BookDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		isbn := validators.NormalizeISBN(chi.URLParam(r, "isbn"))
		if isbn == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "isbn is required"))
			return
		}

		book, err := svc.GetBook(ctx, isbn)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, book)
	}
}
