// Package log provides secure logging built on top of the standard slog package.
//
// The SecureHandler masks sensitive information before it is written:
//   - Cookie, authorization and API token attributes (the GraphQL sink
//     authenticates with an x-auth-token header)
//   - Values that look like bearer tokens, JWTs or long opaque keys
//   - User info and token-like query parameters inside logged addresses,
//     including addresses embedded in error messages
//
// Even in verbose mode, sensitive values are masked so logs can be shared.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("fetched", "url", "https://example.com/list?token=abc")
//	// url=https://example.com/list?token=%2A%2A%2AREDACTED%2A%2A%2A
package log
