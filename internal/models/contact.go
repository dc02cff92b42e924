package models

// Contact represents a locally stored contact
type Contact struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Group string `json:"group"`
}

// ContactInput is a contact without an id
type ContactInput struct {
	Name  string `json:"name" validate:"max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"max=50"`
	Group string `json:"group"`
}

// ContactPatch is a partial contact update; nil fields are left unchanged
type ContactPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty"`
	Group *string `json:"group,omitempty"`
}

// ContactImportResult holds the result of a CSV import
type ContactImportResult struct {
	Total    int      `json:"total"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
