// This file exposes Prometheus instrumentation for the contractor workflow
// itself, complementing the HTTP traffic metrics in the middleware package.
// Label cardinality is bounded: email kinds and invoice outcomes are small,
// fixed enumerations.

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// workflowEmails counts outbound workflow emails by kind
	// (scheduling/invoice/confirmation/dispute) and outcome (sent/failed).
	workflowEmails = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_emails_total",
			Help: "Total workflow notification emails by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// autoConfirmations counts completions closed by the silence sweep.
	autoConfirmations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "workflow_auto_confirmations_total",
			Help: "Completions auto-confirmed after the tenant response window elapsed.",
		},
	)

	// invoiceDecisions counts submitted invoices by approval outcome.
	invoiceDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workflow_invoices_total",
			Help: "Submitted invoices by approval outcome (auto_approved/pending_approval).",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(workflowEmails, autoConfirmations, invoiceDecisions)
}

// RecordEmail records one outbound email attempt of the given kind.
func RecordEmail(kind string, sent bool) {
	outcome := "sent"
	if !sent {
		outcome = "failed"
	}
	workflowEmails.WithLabelValues(kind, outcome).Inc()
}

// RecordAutoConfirmation records one silence-window auto-confirmation.
func RecordAutoConfirmation() { autoConfirmations.Inc() }

// RecordInvoiceDecision records one invoice approval outcome.
func RecordInvoiceDecision(autoApproved bool) {
	outcome := "pending_approval"
	if autoApproved {
		outcome = "auto_approved"
	}
	invoiceDecisions.WithLabelValues(outcome).Inc()
}
