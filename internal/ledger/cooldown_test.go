package ledger

import (
	"testing"
	"time"
)

func TestCanReward(t *testing.T) {
	base := time.Unix(1700000000, 0)
	last := base.Unix()

	tests := []struct {
		name          string
		lastRewardAt  *int64
		now           time.Time
		cooldown      time.Duration
		wantAllowed   bool
		wantRemaining time.Duration
	}{
		{
			name:         "never rewarded",
			lastRewardAt: nil,
			now:          base,
			cooldown:     time.Hour,
			wantAllowed:  true,
		},
		{
			name:          "immediately after reward",
			lastRewardAt:  &last,
			now:           base,
			cooldown:      time.Hour,
			wantAllowed:   false,
			wantRemaining: time.Hour,
		},
		{
			name:          "halfway through window",
			lastRewardAt:  &last,
			now:           base.Add(30 * time.Minute),
			cooldown:      time.Hour,
			wantAllowed:   false,
			wantRemaining: 30 * time.Minute,
		},
		{
			name:          "one second before reopening",
			lastRewardAt:  &last,
			now:           base.Add(time.Hour - time.Second),
			cooldown:      time.Hour,
			wantAllowed:   false,
			wantRemaining: time.Second,
		},
		{
			name:         "exactly at reopening",
			lastRewardAt: &last,
			now:          base.Add(time.Hour),
			cooldown:     time.Hour,
			wantAllowed:  true,
		},
		{
			name:         "long after reopening",
			lastRewardAt: &last,
			now:          base.Add(48 * time.Hour),
			cooldown:     time.Hour,
			wantAllowed:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			allowed, remaining := CanReward(tt.lastRewardAt, tt.now, tt.cooldown)
			if allowed != tt.wantAllowed {
				t.Errorf("Expected allowed=%v, got %v", tt.wantAllowed, allowed)
			}
			if remaining != tt.wantRemaining {
				t.Errorf("Expected remaining=%v, got %v", tt.wantRemaining, remaining)
			}
		})
	}
}
