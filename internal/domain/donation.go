package domain

import "time"

// Donation represents a posted food item available for request.
type Donation struct {
	ID            string    `json:"_id,omitempty"`
	FoodItem      string    `json:"foodItem"`
	Description   string    `json:"description"`
	Quantity      string    `json:"quantity"`
	Location      string    `json:"location"`
	AvailableTill time.Time `json:"availableTill"`
	Notes         string    `json:"notes,omitempty"`
	Images        []string  `json:"images"`
	Status        string    `json:"status"`
	User          Donor     `json:"user"`
	Requests      []Request `json:"requests"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Donor is the denormalized owner embedded in a donation.
type Donor struct {
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	Profile     string `json:"profile,omitempty"`
}

// Request is a user's expression of interest in a donation.
type Request struct {
	ID            string    `json:"_id,omitempty"`
	UserID        string    `json:"userId"`
	RequestDate   time.Time `json:"requestDate"`
	RequestStatus string    `json:"requestStatus,omitempty"`
}

// PrimaryImage returns the only image a listing displays.
func (d Donation) PrimaryImage() (string, bool) {
	if len(d.Images) == 0 {
		return "", false
	}
	return d.Images[0], true
}

// Status reports the request status, treating an absent value as pending.
func (r Request) Status() string {
	if r.RequestStatus == "" {
		return RequestStatusPending
	}
	return r.RequestStatus
}

// IsPending reports whether the donor has not acted on the request yet.
func (r Request) IsPending() bool {
	return r.Status() == RequestStatusPending
}

// NewDonation carries the donor-supplied fields of a listing. Identifier,
// status and timestamps are assigned by the server.
type NewDonation struct {
	FoodItem      string
	Description   string
	Quantity      string
	Location      string
	AvailableTill time.Time
	Notes         string
}
