// Package accounts implements account registration with email verification,
// credential login, and a dual token authorization scheme.
//
// Registration:
//   - RegisterUserHandler creates an unverified User and emails a single
//     purpose verification token. Email and username uniqueness is enforced
//     against verified accounts only; unverified duplicates may pile up and
//     are pruned when one of them verifies via VerifyAccountHandler.
//
// Tokens:
//   - TokenService signs the access and refresh tokens. Expiry travels in a
//     signed token header rather than the claims, and Decode returns it
//     without enforcing it; Authorizer owns the expiry decision.
//   - VerificationTokenService signs activation tokens under a separate
//     secret with a decoder-side max age.
//
// Authorization:
//   - Authorizer consumes the combined credential header (access and refresh
//     token under distinct prefixes). A fresh access token authenticates on
//     its own; an expired one triggers a silent refresh that cross-checks the
//     presented refresh token against the one stored at login.
//
// The HTTP surface is a fiber JSON API (see AuthController) and persistence
// runs on bun repositories behind the RepositoryManager interface.
package accounts
