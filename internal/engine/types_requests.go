package engine

import (
	"github.com/danieljhkim/rapidstruct/internal/protocol"
	"github.com/danieljhkim/rapidstruct/internal/region"
)

// HostContext is the patient, image and structure set a run operates on.
type HostContext struct {
	// PatientID identifies the loaded patient
	PatientID string

	// ImageID identifies the planning image
	ImageID string

	// Structures is the structure set; the run owns it exclusively
	Structures region.Store

	// Digest fingerprints the document the structures were loaded from
	Digest string
}

// RunRequest represents a request to run a protocol.
type RunRequest struct {
	// Context is the loaded structure set; nil means nothing is loaded
	Context *HostContext

	// Protocol is the derivation table to run
	Protocol *protocol.Protocol

	// DryRun stops after the precondition gate
	DryRun bool

	// WriteReport persists the run report under the reports directory
	WriteReport bool
}
