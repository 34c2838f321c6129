package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"stars-ledger-go/internal/store"
)

func TestRegisterUser_Idempotent(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	referrerId := int64(99)
	registerTestUser(t, service, 99, nil)

	err := service.RegisterUser(ctx, store.RegisterUserParams{
		UserId:     1,
		Username:   "First Name",
		ReferrerId: &referrerId,
	})
	if err != nil {
		t.Fatalf("First registration failed: %v", err)
	}

	// Re-registering with different fields must not change the stored row.
	err = service.RegisterUser(ctx, store.RegisterUserParams{
		UserId:     1,
		Username:   "Second Name",
		ReferrerId: nil,
	})
	if err != nil {
		t.Fatalf("Second registration failed: %v", err)
	}

	user, err := service.GetUserById(ctx, 1)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if user.Username != "First Name" {
		t.Errorf("Expected original username preserved, got %q", user.Username)
	}
	if user.ReferrerId == nil || *user.ReferrerId != 99 {
		t.Errorf("Expected original referrer preserved, got %v", user.ReferrerId)
	}
}

func TestGetUserById_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetUserById(context.Background(), 404)
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("Expected ErrUserNotFound, got: %v", err)
	}
}

func TestMarkActivated_OnlyOnce(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	registerTestUser(t, service, 1, nil)

	now := time.Unix(1700000000, 0)
	first, err := service.MarkActivated(ctx, 1, now)
	if err != nil {
		t.Fatalf("MarkActivated failed: %v", err)
	}
	if !first {
		t.Error("Expected first activation to report true")
	}

	second, err := service.MarkActivated(ctx, 1, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Second MarkActivated failed: %v", err)
	}
	if second {
		t.Error("Expected second activation to report false")
	}

	user, err := service.GetUserById(ctx, 1)
	if err != nil {
		t.Fatalf("GetUserById failed: %v", err)
	}
	if user.ActivatedAt == nil || *user.ActivatedAt != now.Unix() {
		t.Errorf("Expected activated_at %d, got %v", now.Unix(), user.ActivatedAt)
	}
}

func TestCountReferrals(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	registerTestUser(t, service, 1, nil)

	referrerId := int64(1)
	for _, id := range []int64{2, 3, 4} {
		registerTestUser(t, service, id, &referrerId)
	}
	// Unrelated user must not count.
	registerTestUser(t, service, 5, nil)

	now := time.Unix(1700000000, 0)
	if _, err := service.MarkActivated(ctx, 2, now); err != nil {
		t.Fatalf("MarkActivated failed: %v", err)
	}
	if _, err := service.MarkActivated(ctx, 3, now); err != nil {
		t.Fatalf("MarkActivated failed: %v", err)
	}

	total, active, err := service.CountReferrals(ctx, 1)
	if err != nil {
		t.Fatalf("CountReferrals failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Expected 3 total referrals, got %d", total)
	}
	if active != 2 {
		t.Errorf("Expected 2 active referrals, got %d", active)
	}
}
