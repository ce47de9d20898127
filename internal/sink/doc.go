// Package sink delivers completed items to their destination.
//
// Every destination implements Submitter:
//   - GraphQL posts a createVideo mutation to a remote API
//   - Store persists items to the local SQLite database
//   - JSONLines writes one JSON object per item, used for dry runs
//
// Multi chains several sinks. Failures are reported as *SubmissionError so
// callers can tell a rejected item from a broken crawl.
package sink
