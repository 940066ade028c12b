package services

import (
	"context"

	"fooddonation/internal/domain"
)

// Requests covers the listings the signed-in user asked for and the
// donor-side review of approved requests.
type Requests struct {
	api API
}

// NewRequests binds the request operations to a client.
func NewRequests(api API) *Requests {
	return &Requests{api: api}
}

// ListMine returns the listings the user has requested.
func (r *Requests) ListMine(ctx context.Context) ([]domain.Donation, error) {
	return listDonations(ctx, r.api, pathMyRequests)
}

// Delete withdraws the user's request. It uses the same endpoint and
// confirmation rules as deleting a listing.
func (r *Requests) Delete(ctx context.Context, donationID string) error {
	return deleteFood(ctx, r.api, donationID)
}

// ListApproved returns the donor's listings whose requests were approved,
// with the request list embedded.
func (r *Requests) ListApproved(ctx context.Context) ([]domain.Donation, error) {
	return listDonations(ctx, r.api, pathApproved)
}
