// Package services implements the driving port interfaces.
// Services hold the sync guard, the reconciliation pipeline and the review
// workflow, and reach storage and providers only through driven ports.
package services
