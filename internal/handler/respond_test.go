package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukerupert/mileswise/internal/archive"
	"github.com/dukerupert/mileswise/internal/loyalty"
	"github.com/dukerupert/mileswise/internal/tier"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        fmt.Errorf("create reward: %w", &loyalty.ValidationError{Field: "name", Message: "is required"}),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "tier in use keeps detail",
			err:        fmt.Errorf("delete tier: %w", fmt.Errorf("%w: 2 member(s) hold %q", loyalty.ErrTierInUse, "gold")),
			wantStatus: http.StatusConflict,
			wantMsg:    loyalty.ErrTierInUse.Error() + `: 2 member(s) hold "gold"`,
		},
		{
			name:       "duplicate threshold",
			err:        fmt.Errorf("create tier: %w", tier.ErrDuplicateThreshold),
			wantStatus: http.StatusBadRequest,
			wantMsg:    tier.ErrDuplicateThreshold.Error(),
		},
		{
			name:       "not found",
			err:        fmt.Errorf("get member: %w", loyalty.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantMsg:    loyalty.ErrNotFound.Error(),
		},
		{
			name:       "archive disabled",
			err:        archive.ErrDisabled,
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    archive.ErrDisabled.Error(),
		},
		{
			name:       "unexpected",
			err:        errors.New("disk I/O error"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "internal error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := errorStatus(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if tt.wantMsg != "" && msg != tt.wantMsg {
				t.Errorf("msg = %q, want %q", msg, tt.wantMsg)
			}
			if strings.Contains(msg, "delete tier:") || strings.Contains(msg, "get member:") {
				t.Errorf("msg %q leaks wrapping context", msg)
			}
		})
	}
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	var v map[string]any
	if decodeJSON(rec, req, &v) {
		t.Fatal("expected decode to fail")
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestDecodeOptionalJSONAcceptsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/claims/1/reject", nil)
	rec := httptest.NewRecorder()

	var v rejectRequest
	if !decodeOptionalJSON(rec, req, &v) {
		t.Fatalf("expected empty body to be accepted, status %d", rec.Code)
	}
}
