// Package identity provides the account and authentication layer for the
// PAWdoption services: credential storage, stateless bearer tokens, and the
// password reset lifecycle.
//
// User records:
//   - Users are persisted via Bun with a uuid primary key plus a monotonic
//     DisplayID allocated from the counters table in the same transaction as
//     the insert. Display ids are never reused, a failed registration never
//     consumes one.
//   - Passwords are stored as bcrypt hashes only. The hash and the reset
//     token pair never serialize through the JSON projections.
//
// Tokens:
//   - TokenService signs HS256 JWTs carrying the uid, role, and email claims.
//     Validation re-resolves the identity against the store, so a deleted
//     user cannot keep using a stale token.
//
// Password reset:
//   - PasswordResets issues a single-use, time-bound token delivered through
//     a Mailer. Only the sha256 digest of the token is stored; consumption is
//     a single conditional update so two racing consumers cannot both win.
//
// Guarding:
//   - Guard provides the Authenticate and RequireRole middleware for
//     go-router handlers. Failures map onto 401 for authentication problems
//     and 403 for role denials.
package identity
