package credentials

import (
	"time"

	"github.com/calbridge/calbridge/internal/store"
)

// ExpirySkew is how long before the stored expiry an access token is already
// treated as stale. Refreshing slightly early avoids handing out a token that
// expires mid provider call.
const ExpirySkew = 30 * time.Second

// Snapshot is an immutable in-memory view of a stored credential record.
// It replaces the provider SDK's mutable, self-refreshing credential object:
// the staleness decision over a snapshot is pure and testable without
// network access.
type Snapshot struct {
	UserID       string
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// SnapshotFromRecord builds a Snapshot from a stored credential record.
func SnapshotFromRecord(rec *store.CredentialRecord) Snapshot {
	return Snapshot{
		UserID:       rec.UserID,
		ClientID:     rec.ClientID,
		ClientSecret: rec.ClientSecret,
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		Expiry:       rec.Expiry,
	}
}

// Decision is the outcome of the staleness check for a credential snapshot.
type Decision int

const (
	// UseAsIs means the stored access token is valid for an immediate call.
	UseAsIs Decision = iota
	// Refresh means the access token is stale and a refresh token is present.
	Refresh
	// Unrefreshable means the access token is stale or absent and no refresh
	// token exists; downstream calls must fail fast.
	Unrefreshable
)

// Decide determines whether the snapshot's access token is usable at the
// given instant. A token with an unknown expiry is treated as stale, so a
// record written without expiry information forces a refresh rather than
// risking a provider call with a dead token.
func Decide(snap Snapshot, now time.Time) Decision {
	valid := snap.AccessToken != "" &&
		!snap.Expiry.IsZero() &&
		now.Add(ExpirySkew).Before(snap.Expiry)

	if valid {
		return UseAsIs
	}
	if snap.RefreshToken != "" {
		return Refresh
	}
	return Unrefreshable
}
