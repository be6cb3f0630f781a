package credentials

import (
	"testing"
	"time"
)

func TestDecide(t *testing.T) {
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		snap     Snapshot
		expected Decision
	}{
		{
			name: "valid token",
			snap: Snapshot{
				AccessToken: "at",
				Expiry:      now.Add(time.Hour),
			},
			expected: UseAsIs,
		},
		{
			name: "valid token with refresh token",
			snap: Snapshot{
				AccessToken:  "at",
				RefreshToken: "rt",
				Expiry:       now.Add(time.Hour),
			},
			expected: UseAsIs,
		},
		{
			name: "expired token with refresh token",
			snap: Snapshot{
				AccessToken:  "at",
				RefreshToken: "rt",
				Expiry:       now.Add(-time.Hour),
			},
			expected: Refresh,
		},
		{
			name: "token expiring within skew",
			snap: Snapshot{
				AccessToken:  "at",
				RefreshToken: "rt",
				Expiry:       now.Add(ExpirySkew / 2),
			},
			expected: Refresh,
		},
		{
			name: "empty token with refresh token",
			snap: Snapshot{
				RefreshToken: "rt",
			},
			expected: Refresh,
		},
		{
			name: "unknown expiry forces refresh",
			snap: Snapshot{
				AccessToken:  "at",
				RefreshToken: "rt",
			},
			expected: Refresh,
		},
		{
			name: "expired token without refresh token",
			snap: Snapshot{
				AccessToken: "at",
				Expiry:      now.Add(-time.Hour),
			},
			expected: Unrefreshable,
		},
		{
			name:     "empty record",
			snap:     Snapshot{},
			expected: Unrefreshable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.snap, now); got != tt.expected {
				t.Errorf("Decide() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	if got := KindOf(NewError(KindUnrefreshable, "detail")); got != KindUnrefreshable {
		t.Errorf("expected %v, got %v", KindUnrefreshable, got)
	}

	wrapped := WrapError(KindRefreshFailed, "outer", NewError(KindNoCredentials, "inner"))
	if got := KindOf(wrapped); got != KindRefreshFailed {
		t.Errorf("expected outer kind %v, got %v", KindRefreshFailed, got)
	}
}
