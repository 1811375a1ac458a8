package dto

// SubmissionInput carries the raw, untrusted contact form payload exactly as
// it arrived on the wire. It is built per request and never persisted.
type SubmissionInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// ContactFormData is the sanitized submission that passed validation.
// Email and phone are individually optional; the cross-field rule that at
// least one must be present is enforced by the service, not by tags.
type ContactFormData struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"omitempty,email,max=254"`
	Phone   string `json:"phone" validate:"omitempty,phone_digits"`
	Message string `json:"message" validate:"required,max=1000"`
}

// ContactResponse is returned to the caller on an accepted submission.
type ContactResponse struct {
	ReferenceID string `json:"reference_id"`
}

// RootField collects validation errors with no natural field binding.
const RootField = "root"

// FieldErrors maps field names to human-readable validation messages.
type FieldErrors map[string][]string

// Add appends a message to the named field's error list.
func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// Empty reports whether no errors were collected.
func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}
