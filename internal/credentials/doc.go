// Package credentials implements the OAuth credential lifecycle: an immutable
// snapshot of a stored credential record, a pure staleness decision over it,
// and a resolver that refreshes stale access tokens against the provider's
// token endpoint and persists the result.
//
// Refresh is lazy and per call. There is no background refresh scheduler and
// no in-process credential cache: the system only needs a valid token for the
// duration of a single outbound call, and re-reading the store on every
// resolution keeps concurrent refreshes safe (the store's atomic single-row
// write arbitrates, last write wins).
package credentials
