package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agenda/backend/internal/domain"
	"agenda/backend/internal/service/booking"
	"agenda/backend/internal/store"
)

type fakeService struct {
	createFn func(ctx context.Context, in booking.CreateInput) (domain.Booking, []domain.Product, error)
	updateFn func(ctx context.Context, kind domain.BookingKind, id uuid.UUID, in booking.UpdateInput) (domain.Booking, []domain.Product, error)
	deleteFn func(ctx context.Context, kind domain.BookingKind, id uuid.UUID) error
	listFn   func(ctx context.Context, kind domain.BookingKind, ownerID uuid.UUID) ([]domain.Booking, error)
}

func (f *fakeService) Create(ctx context.Context, in booking.CreateInput) (domain.Booking, []domain.Product, error) {
	return f.createFn(ctx, in)
}

func (f *fakeService) Update(ctx context.Context, kind domain.BookingKind, id uuid.UUID, in booking.UpdateInput) (domain.Booking, []domain.Product, error) {
	return f.updateFn(ctx, kind, id, in)
}

func (f *fakeService) Delete(ctx context.Context, kind domain.BookingKind, id uuid.UUID) error {
	return f.deleteFn(ctx, kind, id)
}

func (f *fakeService) List(ctx context.Context, kind domain.BookingKind, ownerID uuid.UUID) ([]domain.Booking, error) {
	return f.listFn(ctx, kind, ownerID)
}

func newTestRouter(svc *fakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestListQuotes(t *testing.T) {
	ownerID := uuid.New()
	svc := &fakeService{
		listFn: func(ctx context.Context, kind domain.BookingKind, oid uuid.UUID) ([]domain.Booking, error) {
			if kind != domain.BookingKindQuote {
				t.Errorf("kind = %s, want quote", kind)
			}
			if oid != ownerID {
				t.Errorf("ownerID = %s, want %s", oid, ownerID)
			}
			return []domain.Booking{{ID: uuid.New(), Kind: kind, OwnerID: oid}}, nil
		},
	}
	r := newTestRouter(svc)

	rec := doJSON(t, r, http.MethodGet, "/api/quotes?ownerId="+ownerID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if _, ok := body["quotes"]; !ok {
		t.Fatalf("response %v has no quotes key", body)
	}
}

func TestList_MissingOwnerQuery(t *testing.T) {
	svc := &fakeService{
		listFn: func(ctx context.Context, kind domain.BookingKind, oid uuid.UUID) ([]domain.Booking, error) {
			t.Fatal("service called despite missing ownerId")
			return nil, nil
		},
	}
	r := newTestRouter(svc)

	rec := doJSON(t, r, http.MethodGet, "/api/schedules", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateQuote(t *testing.T) {
	ownerID := uuid.New()
	clientID := uuid.New()
	productID := uuid.New()

	var gotInput booking.CreateInput
	svc := &fakeService{
		createFn: func(ctx context.Context, in booking.CreateInput) (domain.Booking, []domain.Product, error) {
			gotInput = in
			b := domain.Booking{
				ID: uuid.New(), Kind: in.Kind, OwnerID: in.OwnerID, ClientID: in.ClientID,
				StartTime: in.StartTime, EndTime: in.EndTime,
				Day: in.Date.Day, Month: in.Date.Month, Year: in.Date.Year, Status: true,
			}
			return b, []domain.Product{{ID: productID, Name: "cut"}}, nil
		},
	}
	r := newTestRouter(svc)

	rec := doJSON(t, r, http.MethodPost, "/api/quotes", map[string]any{
		"startTime": "09:00",
		"endTime":   "10:00",
		"ownerId":   ownerID.String(),
		"clientId":  clientID.String(),
		"day":       20, "month": 2, "year": 2025,
		"products": []string{productID.String()},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	if gotInput.Kind != domain.BookingKindQuote {
		t.Errorf("kind = %s, want quote", gotInput.Kind)
	}
	if gotInput.OwnerID != ownerID {
		t.Errorf("ownerID = %s, want %s", gotInput.OwnerID, ownerID)
	}
	if gotInput.ClientID == nil || *gotInput.ClientID != clientID {
		t.Errorf("clientID = %v, want %s", gotInput.ClientID, clientID)
	}
	if len(gotInput.ProductIDs) != 1 || gotInput.ProductIDs[0] != productID {
		t.Errorf("productIDs = %v, want [%s]", gotInput.ProductIDs, productID)
	}

	body := decodeBody(t, rec)
	if _, ok := body["quote"]; !ok {
		t.Errorf("response %v has no quote key", body)
	}
	if _, ok := body["products"]; !ok {
		t.Errorf("quote response %v has no products key", body)
	}
}

func TestCreateSchedule_NoProductsKey(t *testing.T) {
	svc := &fakeService{
		createFn: func(ctx context.Context, in booking.CreateInput) (domain.Booking, []domain.Product, error) {
			return domain.Booking{ID: uuid.New(), Kind: in.Kind, OwnerID: in.OwnerID}, nil, nil
		},
	}
	r := newTestRouter(svc)

	rec := doJSON(t, r, http.MethodPost, "/api/schedules", map[string]any{
		"startTime": "09:00",
		"endTime":   "10:00",
		"ownerId":   uuid.NewString(),
		"day":       20, "month": 2, "year": 2025,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if _, ok := body["schedule"]; !ok {
		t.Errorf("response %v has no schedule key", body)
	}
	if _, ok := body["products"]; ok {
		t.Errorf("schedule response %v carries a products key", body)
	}
}

func TestCreate_BadUUID(t *testing.T) {
	svc := &fakeService{
		createFn: func(ctx context.Context, in booking.CreateInput) (domain.Booking, []domain.Product, error) {
			t.Fatal("service called despite invalid ownerId")
			return domain.Booking{}, nil, nil
		},
	}
	r := newTestRouter(svc)

	rec := doJSON(t, r, http.MethodPost, "/api/schedules", map[string]any{
		"startTime": "09:00",
		"endTime":   "10:00",
		"ownerId":   "not-a-uuid",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreate_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "missing fields",
			err:      &booking.MissingFieldsError{Fields: []string{"startTime"}},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "window validation",
			err:      booking.ValidateWindowOrdering("10:00", "09:00"),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "date horizon",
			err:      &booking.DateRangeError{Kind: booking.DateTooLate},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "slot conflict",
			err:      &booking.ConflictError{},
			wantCode: http.StatusConflict,
		},
		{
			name:     "constraint conflict",
			err:      store.ErrConflict,
			wantCode: http.StatusConflict,
		},
		{
			name:     "dangling reference",
			err:      &booking.ReferenceNotFoundError{Kind: "owner", ID: uuid.New()},
			wantCode: http.StatusNotFound,
		},
		{
			name:     "unexpected failure",
			err:      errors.New("connection reset"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{
				createFn: func(ctx context.Context, in booking.CreateInput) (domain.Booking, []domain.Product, error) {
					return domain.Booking{}, nil, tc.err
				},
			}
			r := newTestRouter(svc)

			rec := doJSON(t, r, http.MethodPost, "/api/quotes", map[string]any{
				"startTime": "09:00",
				"endTime":   "10:00",
				"ownerId":   uuid.NewString(),
			})
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tc.wantCode, rec.Body.String())
			}
		})
	}
}

func TestUpdate_PartialBodyMapsToPointers(t *testing.T) {
	id := uuid.New()
	var gotInput booking.UpdateInput
	svc := &fakeService{
		updateFn: func(ctx context.Context, kind domain.BookingKind, gotID uuid.UUID, in booking.UpdateInput) (domain.Booking, []domain.Product, error) {
			if gotID != id {
				t.Errorf("id = %s, want %s", gotID, id)
			}
			gotInput = in
			return domain.Booking{ID: gotID, Kind: kind}, nil, nil
		},
	}
	r := newTestRouter(svc)

	rec := doJSON(t, r, http.MethodPut, "/api/schedules/"+id.String(), map[string]any{
		"endTime": "11:00",
		"status":  false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}

	if gotInput.EndTime == nil || *gotInput.EndTime != "11:00" {
		t.Errorf("endTime = %v, want 11:00", gotInput.EndTime)
	}
	if gotInput.Status == nil || *gotInput.Status != false {
		t.Errorf("status = %v, want false", gotInput.Status)
	}
	if gotInput.StartTime != nil || gotInput.Day != nil || gotInput.OwnerID != nil {
		t.Errorf("untouched fields set: %+v", gotInput)
	}
}

func TestUpdate_ImmutableDefault(t *testing.T) {
	svc := &fakeService{
		updateFn: func(ctx context.Context, kind domain.BookingKind, id uuid.UUID, in booking.UpdateInput) (domain.Booking, []domain.Product, error) {
			return domain.Booking{}, nil, booking.ErrImmutableDefault
		},
	}
	r := newTestRouter(svc)

	rec := doJSON(t, r, http.MethodPut, "/api/schedules/"+uuid.NewString(), map[string]any{
		"startTime": "09:00",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdate_BadIDParam(t *testing.T) {
	svc := &fakeService{
		updateFn: func(ctx context.Context, kind domain.BookingKind, id uuid.UUID, in booking.UpdateInput) (domain.Booking, []domain.Product, error) {
			t.Fatal("service called despite invalid id")
			return domain.Booking{}, nil, nil
		},
	}
	r := newTestRouter(svc)

	rec := doJSON(t, r, http.MethodPut, "/api/schedules/nope", map[string]any{"startTime": "09:00"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteQuote(t *testing.T) {
	id := uuid.New()
	svc := &fakeService{
		deleteFn: func(ctx context.Context, kind domain.BookingKind, gotID uuid.UUID) error {
			if kind != domain.BookingKindQuote {
				t.Errorf("kind = %s, want quote", kind)
			}
			if gotID != id {
				t.Errorf("id = %s, want %s", gotID, id)
			}
			return nil
		},
	}
	r := newTestRouter(svc)

	rec := doJSON(t, r, http.MethodDelete, "/api/quotes/"+id.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message"] != "quote deleted successfully" {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestDelete_NotFound(t *testing.T) {
	svc := &fakeService{
		deleteFn: func(ctx context.Context, kind domain.BookingKind, id uuid.UUID) error {
			return store.ErrNotFound
		},
	}
	r := newTestRouter(svc)

	rec := doJSON(t, r, http.MethodDelete, "/api/schedules/"+uuid.NewString(), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "schedule not found" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(&fakeService{})

	rec := doJSON(t, r, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
