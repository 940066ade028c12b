package services

import (
	"context"
	"image"
	"net/http"
	"strings"

	"fooddonation/internal/apiclient"
	"fooddonation/internal/domain"
)

// Donations covers browsing, posting, requesting and managing listings.
type Donations struct {
	api API
}

// NewDonations binds the listing operations to a client.
func NewDonations(api API) *Donations {
	return &Donations{api: api}
}

// List returns every listing visible to the signed-in user.
func (d *Donations) List(ctx context.Context) ([]domain.Donation, error) {
	return listDonations(ctx, d.api, pathFood)
}

// Get fetches a single listing.
func (d *Donations) Get(ctx context.Context, id string) (*domain.Donation, error) {
	escaped, err := requireID(id)
	if err != nil {
		return nil, err
	}
	resp, err := d.api.RequestJSON(ctx, http.MethodGet, pathFood+"/"+escaped, nil, true)
	if err != nil {
		return nil, err
	}
	var out domain.Donation
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts a new listing with one photo, encoded as JPEG at the fixed
// upload quality.
func (d *Donations) Create(ctx context.Context, in domain.NewDonation, img image.Image) (string, error) {
	const msg = "Please fill in all fields and select an image"
	if err := requireFields(msg,
		field{"foodItem", in.FoodItem},
		field{"description", in.Description},
		field{"quantity", in.Quantity},
		field{"location", in.Location},
	); err != nil {
		return "", err
	}
	if img == nil {
		return "", domain.Invalid("image", msg)
	}
	if in.AvailableTill.IsZero() {
		return "", domain.Invalid("availableTill", msg)
	}
	file, err := apiclient.JPEGPart(img)
	if err != nil {
		return "", domain.Invalid("image", "Selected image could not be encoded")
	}
	fields := []apiclient.Field{
		{Name: "foodItem", Value: strings.TrimSpace(in.FoodItem)},
		{Name: "description", Value: strings.TrimSpace(in.Description)},
		{Name: "quantity", Value: strings.TrimSpace(in.Quantity)},
		{Name: "location", Value: strings.TrimSpace(in.Location)},
		{Name: "availableTill", Value: domain.FormatTimestamp(in.AvailableTill)},
		{Name: "notes", Value: in.Notes},
	}
	resp, err := d.api.RequestMultipart(ctx, pathAddFood, fields, file, true)
	if err != nil {
		return "", err
	}
	message, err := decodeOutcome(resp)
	if err != nil {
		return "", err
	}
	return firstNonEmpty(message, "Food item added successfully"), nil
}

// Request asks the donor for a listing.
func (d *Donations) Request(ctx context.Context, id string) (string, error) {
	escaped, err := requireID(id)
	if err != nil {
		return "", err
	}
	resp, err := d.api.RequestJSON(ctx, http.MethodPost, pathRequestFood+escaped, nil, true)
	if err != nil {
		return "", err
	}
	message, err := decodeOutcome(resp)
	if err != nil {
		return "", err
	}
	return firstNonEmpty(message, "Your request has been submitted."), nil
}

// ListMine returns the listings the signed-in user posted.
func (d *Donations) ListMine(ctx context.Context) ([]domain.Donation, error) {
	return listDonations(ctx, d.api, pathMyDonated)
}

type updateRequestsBody struct {
	RequestStatus string `json:"requestStatus"`
}

// UpdateRequestStatus records the donor's decision. Only Approved and
// Rejected are accepted.
func (d *Donations) UpdateRequestStatus(ctx context.Context, id, status string) error {
	escaped, err := requireID(id)
	if err != nil {
		return err
	}
	decision, ok := domain.ParseDecision(status)
	if !ok {
		return domain.Invalid("status", "Status must be Approved or Rejected")
	}
	resp, err := d.api.RequestJSON(ctx, http.MethodPatch, pathUpdateRequests+escaped, updateRequestsBody{RequestStatus: decision}, true)
	if err != nil {
		return err
	}
	return requireOK(resp, "Failed to update request status.")
}

// Delete removes one of the user's own listings.
func (d *Donations) Delete(ctx context.Context, id string) error {
	return deleteFood(ctx, d.api, id)
}

func deleteFood(ctx context.Context, api API, id string) error {
	escaped, err := requireID(id)
	if err != nil {
		return err
	}
	resp, err := api.RequestJSON(ctx, http.MethodDelete, pathFood+"/"+escaped, nil, true)
	if err != nil {
		return err
	}
	return requireOK(resp, "Failed to delete item.")
}
