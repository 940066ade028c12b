package services

import (
	"context"
	"net/http"

	"fooddonation/internal/domain"
)

// Profile reads the signed-in account.
type Profile struct {
	api API
}

// NewProfile binds the account lookup to a client.
func NewProfile(api API) *Profile {
	return &Profile{api: api}
}

// Fetch returns the signed-in user's account.
func (p *Profile) Fetch(ctx context.Context) (*domain.UserProfile, error) {
	resp, err := p.api.RequestJSON(ctx, http.MethodGet, pathMyAccount, nil, true)
	if err != nil {
		return nil, err
	}
	var out domain.UserProfile
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Categories reads the public category list.
type Categories struct {
	api API
}

// NewCategories binds the category lookup to a client.
func NewCategories(api API) *Categories {
	return &Categories{api: api}
}

// List returns the categories; no sign-in is needed.
func (c *Categories) List(ctx context.Context) ([]domain.Category, error) {
	resp, err := c.api.RequestJSON(ctx, http.MethodGet, pathCategories, nil, false)
	if err != nil {
		return nil, err
	}
	var out []domain.Category
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
