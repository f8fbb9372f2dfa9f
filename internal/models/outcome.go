package models

import "time"

// OutcomeStatus is the terminal state of one provider call.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
)

// FailureKind classifies a failed provider call.
type FailureKind string

const (
	FailureMissingCredential FailureKind = "missing_credential"
	FailureTimeout           FailureKind = "timeout"
	FailureNetwork           FailureKind = "network_error"
	FailureCanceled          FailureKind = "canceled"
)

// DispatchOutcome is the per-provider result of one dispatch. Outcomes are
// produced as providers resolve, in no particular order.
type DispatchOutcome struct {
	DispatchID   string        `json:"dispatchId"`
	ProviderID   uint          `json:"providerId"`
	ProviderName string        `json:"providerName"`
	Status       OutcomeStatus `json:"status"`
	Response     string        `json:"response,omitempty"`
	FailureKind  FailureKind   `json:"failureKind,omitempty"`
	Detail       string        `json:"detail,omitempty"`
	Elapsed      time.Duration `json:"elapsed"`

	// ResultID is the persisted row id, zero when the write failed.
	// WriteErr carries the persistence error for that single row; it never
	// aborts the rest of the batch.
	ResultID uint   `json:"resultId,omitempty"`
	WriteErr string `json:"writeErr,omitempty"`
}
