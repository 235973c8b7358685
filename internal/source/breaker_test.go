package source

import (
	"context"
	"testing"

	"github.com/bestruirui/argus/internal/model"
)

// The shared-cache DSN keeps the in-memory store alive across the breaker's
// own lazy connection, as long as the seeding connection stays open.
const breakerTestDSN = "file:breakertest?mode=memory&cache=shared"

func TestBreaker_Disable(t *testing.T) {
	seed, err := open("sqlite", breakerTestDSN, false)
	if err != nil {
		t.Fatalf("opening seed connection: %v", err)
	}
	if err := seed.AutoMigrate(&model.GatewayChannel{}); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	channels := []model.GatewayChannel{
		{ID: 1, Name: "primary", Status: model.ChannelStatusEnabled},
		{ID: 2, Name: "already off", Status: model.ChannelStatusManualDisabled},
	}
	if err := seed.Create(&channels).Error; err != nil {
		t.Fatalf("seeding channels: %v", err)
	}

	b := NewBreaker("sqlite", breakerTestDSN)
	defer b.Close()
	ctx := context.Background()

	if !b.Disable(ctx, 1) {
		t.Error("expected disable to succeed for an existing channel")
	}
	var got model.GatewayChannel
	if err := seed.First(&got, 1).Error; err != nil {
		t.Fatalf("reading channel back: %v", err)
	}
	if got.Status != model.ChannelStatusManualDisabled {
		t.Errorf("expected status %d, got %d", model.ChannelStatusManualDisabled, got.Status)
	}

	// A channel that does not exist changes zero rows.
	if b.Disable(ctx, 99) {
		t.Error("expected disable to fail for a missing channel")
	}

	// Disabling an already disabled channel still updates one row.
	if !b.Disable(ctx, 2) {
		t.Error("expected disable to succeed for an already disabled channel")
	}
}

func TestBreaker_ConnectFailure(t *testing.T) {
	b := NewBreaker("oracle", "whatever")
	defer b.Close()

	if b.Disable(context.Background(), 1) {
		t.Error("expected disable to fail when the dialect is unsupported")
	}
}

func TestBreaker_LazyConnection(t *testing.T) {
	b := NewBreaker("sqlite", breakerTestDSN)
	defer b.Close()

	if b.conn != nil {
		t.Error("breaker must not connect before the first disable")
	}
}
