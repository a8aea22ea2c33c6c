package auth

import (
	"context"
	"testing"
)

func TestWithAuthAndFromContext(t *testing.T) {
	ac := AuthContext{
		AdminID:   1,
		AdminName: "Admin User",
		Email:     "admin@mileswise.local",
		SessionID: 3,
	}

	ctx := WithAuth(context.Background(), ac)
	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected AuthContext in context")
	}
	if got != ac {
		t.Errorf("AuthContext = %+v, want %+v", got, ac)
	}
}

func TestFromContextMissing(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Error("expected false for missing AuthContext")
	}
}

func TestAdminID(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{AdminID: 7})
	if AdminID(ctx) != 7 {
		t.Errorf("AdminID = %d, want 7", AdminID(ctx))
	}
	if AdminID(context.Background()) != 0 {
		t.Error("expected 0 for missing context")
	}
}

func TestAdminName(t *testing.T) {
	ctx := WithAuth(context.Background(), AuthContext{AdminName: "Linh"})
	if AdminName(ctx) != "Linh" {
		t.Errorf("AdminName = %q, want Linh", AdminName(ctx))
	}
	if AdminName(context.Background()) != "" {
		t.Error("expected empty name for missing context")
	}
}

func TestRequestID(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")
	if RequestID(ctx) != "abc" {
		t.Errorf("RequestID = %q, want abc", RequestID(ctx))
	}
	if RequestID(context.Background()) != "" {
		t.Error("expected empty request id for missing context")
	}
}
