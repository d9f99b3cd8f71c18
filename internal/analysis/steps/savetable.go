// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package steps

// SaveTableStep is a reporting step: it marks an analysis table as
// persistent rather than dropped at the end of the plan.
type SaveTableStep struct {
	Base

	Source *SourceTableRef
}

func (s *SaveTableStep) SourceRefs() []*SourceTableRef { return []*SourceTableRef{s.Source} }
