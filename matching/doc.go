// Package matching ranks a record pool against a query entity.
//
// A Pipeline narrows the pool in stages (hard filter, vector prefilter or the
// legacy single-pass prefilter) and then scores the shortlist with one of
// three strategies: vector-only, relevance-service ranking, or a hybrid of
// similarity, relevance and business-rule scores. Strategies never fail the
// run; a collaborator failure produces an Outcome carrying a DegradeReason and
// the pipeline falls through to the next lower-fidelity strategy.
package matching
