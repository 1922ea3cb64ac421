package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/dryd-travel/booking-backend/internal/notifications"
	"github.com/dryd-travel/booking-backend/pkg/db/models"
	"github.com/dryd-travel/booking-backend/pkg/enums"
	pkgerrors "github.com/dryd-travel/booking-backend/pkg/errors"
	"github.com/dryd-travel/booking-backend/pkg/pagination"
)

type stubNotificationService struct {
	params notifications.ListParams
	read   uuid.UUID
}

func (s *stubNotificationService) List(_ context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	s.params = params
	return &notifications.ListResult{
		Page: pagination.Page[models.StaffNotification]{Items: []models.StaffNotification{
			{ID: uuid.New(), Type: enums.NotificationTypeBookingReview, Title: "Booking BK-1 awaits payment review"},
		}},
		Unread: 1,
	}, nil
}

func (s *stubNotificationService) MarkRead(_ context.Context, id uuid.UUID) error {
	if id != s.read {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *stubNotificationService) MarkAllRead(context.Context) (int64, error) {
	return 4, nil
}

func TestAdminListNotifications(t *testing.T) {
	svc := &stubNotificationService{}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/notifications?unread=true&limit=5", nil)
	resp := httptest.NewRecorder()

	AdminListNotifications(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !svc.params.UnreadOnly || svc.params.Limit != 5 {
		t.Fatalf("unexpected params %+v", svc.params)
	}
	data := decodeEnvelope(t, resp.Body.Bytes())["data"].(map[string]any)
	if data["unread"].(float64) != 1 {
		t.Fatalf("expected unread count, got %v", data["unread"])
	}
	if items, ok := data["items"].([]any); !ok || len(items) != 1 {
		t.Fatalf("expected flattened items, got %v", data)
	}
}

func TestAdminMarkNotificationRead(t *testing.T) {
	svc := &stubNotificationService{read: uuid.New()}

	req := withURLParams(httptest.NewRequest(http.MethodPost, "/", nil), map[string]string{"notificationID": svc.read.String()})
	resp := httptest.NewRecorder()
	AdminMarkNotificationRead(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	req = withURLParams(httptest.NewRequest(http.MethodPost, "/", nil), map[string]string{"notificationID": uuid.NewString()})
	resp = httptest.NewRecorder()
	AdminMarkNotificationRead(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	req = withURLParams(httptest.NewRequest(http.MethodPost, "/", nil), map[string]string{"notificationID": "nope"})
	resp = httptest.NewRecorder()
	AdminMarkNotificationRead(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAdminMarkAllNotificationsRead(t *testing.T) {
	resp := httptest.NewRecorder()
	AdminMarkAllNotificationsRead(&stubNotificationService{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	data := decodeEnvelope(t, resp.Body.Bytes())["data"].(map[string]any)
	if data["updated"].(float64) != 4 {
		t.Fatalf("unexpected body %v", data)
	}
}
