package state

import (
	"context"

	"fooddonation/internal/async"
	"fooddonation/internal/domain"
)

// FeedSource lists every visible donation.
type FeedSource interface {
	List(ctx context.Context) ([]domain.Donation, error)
}

// MyDonationsSource manages the signed-in donor's own listings.
type MyDonationsSource interface {
	ListMine(ctx context.Context) ([]domain.Donation, error)
	Delete(ctx context.Context, id string) error
	UpdateRequestStatus(ctx context.Context, id, status string) error
}

// MyRequestsSource manages the listings the user asked for.
type MyRequestsSource interface {
	ListMine(ctx context.Context) ([]domain.Donation, error)
	Delete(ctx context.Context, donationID string) error
}

// ApprovedSource lists the donor's approved requests.
type ApprovedSource interface {
	ListApproved(ctx context.Context) ([]domain.Donation, error)
}

// NewFeed is the read-only list of all donations.
func NewFeed(d async.Dispatcher, src FeedSource) *DonationList {
	return NewDonationList(d, src.List, nil, nil)
}

// NewMyDonations lists the donor's own listings with delete and decide.
func NewMyDonations(d async.Dispatcher, src MyDonationsSource) *DonationList {
	return NewDonationList(d, src.ListMine, src.Delete, src.UpdateRequestStatus)
}

// NewMyRequests lists the user's requests; Remove withdraws one.
func NewMyRequests(d async.Dispatcher, src MyRequestsSource) *DonationList {
	return NewDonationList(d, src.ListMine, src.Delete, nil)
}

// NewApproved lists approved requests, read-only.
func NewApproved(d async.Dispatcher, src ApprovedSource) *DonationList {
	return NewDonationList(d, src.ListApproved, nil, nil)
}
