// Package services contains stateless domain services for order processing.
//
// RetryScheduler implements the backoff policy for transient infrastructure
// failures: exponential delay growth from a 30 second base with a bounded
// retry budget. The scheduler is pure, so the policy can be tested and
// reasoned about independently of the job queue that enforces it.
package services
