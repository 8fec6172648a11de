// Package ident implements credential-based account flows backed by a
// document store: registration, login, profile access, and a paginated
// user listing, all sharing stateless JWT sessions.
//
// The package is organized around a few small contracts:
//   - UserStore is the credential store adapter. The Mongo-backed
//     implementation lives in the store package; the flows only depend on
//     its read/write contract.
//   - HumanVerifier gates credential flows behind a proof-of-humanity
//     challenge. The turnstile package provides the Cloudflare-backed
//     implementation; Accounts carries a bypass for non-production
//     environments.
//   - TokenService signs and validates compact session tokens. Tokens are
//     self-contained; expiry is the only invalidation mechanism and logout
//     is a client-side discard.
//
// Accounts orchestrates the flows, the HTTP controller exposes them as JSON
// endpoints, and the route guard classifies navigational requests as
// protected, auth-only, or neutral and redirects accordingly.
package ident
