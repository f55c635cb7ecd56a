package types

// ConfirmationRequest represents a request for user confirmation before
// an installer phase or a reversal run proceeds
type ConfirmationRequest struct {
	// ID is a unique identifier for this confirmation within the run
	ID string

	// Title is a brief, user-friendly title describing what needs confirmation
	Title string

	// Description provides detailed information about what will happen
	Description string

	// Items lists specific items that will be affected (files, directories)
	Items []string

	// Default indicates the default response if user just presses enter
	// true = default to "yes", false = default to "no"
	Default bool
}

// ConfirmationResponse represents a user's response to a confirmation request
type ConfirmationResponse struct {
	// ID matches the ConfirmationRequest.ID
	ID string

	// Approved indicates whether the user approved this confirmation
	Approved bool
}
