package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/foliobooks/bookstore-backend/pkg/errors"
	"github.com/foliobooks/bookstore-backend/pkg/types"
)

func decodeErrorEnvelope(t *testing.T, w *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return body
}

func TestWriteSuccess(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", w.Code)
	}
	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    pkgerrors.Code
		wantMessage string
		wantDetails bool
	}{
		{
			name: "validation error keeps its message and details",
			err: pkgerrors.New(pkgerrors.CodeValidation, "bad input").
				WithDetails(map[string]string{"field": "quantity"}),
			wantStatus:  http.StatusBadRequest,
			wantCode:    pkgerrors.CodeValidation,
			wantMessage: "bad input",
			wantDetails: true,
		},
		{
			name:        "untyped error is masked as internal",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    pkgerrors.CodeInternal,
			wantMessage: "internal server error",
		},
		{
			name:        "state conflict maps to 422",
			err:         pkgerrors.New(pkgerrors.CodeStateConflict, "cart is locked"),
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    pkgerrors.CodeStateConflict,
			wantMessage: "cart is locked",
		},
		{
			name:        "nil error still produces an internal response",
			err:         nil,
			wantStatus:  http.StatusInternalServerError,
			wantCode:    pkgerrors.CodeInternal,
			wantMessage: "internal server error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			WriteError(context.Background(), nil, w, tc.err)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected status %d but got %d", tc.wantStatus, w.Code)
			}
			body := decodeErrorEnvelope(t, w)
			if body.Error.Code != string(tc.wantCode) {
				t.Fatalf("unexpected code %s", body.Error.Code)
			}
			if body.Error.Message != tc.wantMessage {
				t.Fatalf("unexpected message %q", body.Error.Message)
			}
			if tc.wantDetails && body.Error.Details == nil {
				t.Fatal("expected details in public payload")
			}
			if !tc.wantDetails && body.Error.Details != nil {
				t.Fatalf("details should be omitted, got %v", body.Error.Details)
			}
		})
	}
}
