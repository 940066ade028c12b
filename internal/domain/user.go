package domain

// UserProfile is the signed-in account as reported by the server.
type UserProfile struct {
	ID          string `json:"_id"`
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Profile     string `json:"profile,omitempty"`
}

// Registration holds the fields required to create an account.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// Credential is the persisted session: an opaque bearer token and the email
// it was issued for.
type Credential struct {
	Token string
	Email string
}
