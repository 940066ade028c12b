package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"fooddonation/internal/apiclient"
	"fooddonation/internal/domain"
)

// Endpoint paths, relative to the configured base URL.
const (
	pathLogin          = "auth/login"
	pathRegister       = "api/users/register"
	pathChangePassword = "user/change-password"
	pathCategories     = "category"
	pathFood           = "food"
	pathAddFood        = "food/add-food"
	pathRequestFood    = "food/request/"
	pathMyDonated      = "food/mydonatedfood"
	pathMyRequests     = "food/requests"
	pathApproved       = "food/approved-requests"
	pathUpdateRequests = "food/update-requests/"
	pathMyAccount      = "food/myaccount"
)

const msgFillAllFields = "Please fill in all fields"

// API is the subset of the API client the services depend on.
type API interface {
	RequestJSON(ctx context.Context, method, path string, body any, requiresAuth bool) (*apiclient.Response, error)
	RequestMultipart(ctx context.Context, path string, fields []apiclient.Field, file *apiclient.FilePart, requiresAuth bool) (*apiclient.Response, error)
}

type field struct {
	name  string
	value string
}

// requireFields fails with a ValidationError naming the first blank field.
func requireFields(message string, fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return domain.Invalid(f.name, message)
		}
	}
	return nil
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domain.Invalid("id", "Donation ID is missing")
	}
	return url.PathEscape(id), nil
}

// outcome is the {success, message} envelope returned by write endpoints.
type outcome struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// decodeOutcome turns a {success:false} reply into a ServerError even though
// it arrived with a 2xx status.
func decodeOutcome(resp *apiclient.Response) (string, error) {
	var out outcome
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	if out.Success == nil {
		return "", &domain.DecodeError{Err: errors.New("missing success flag")}
	}
	if !*out.Success {
		msg := strings.TrimSpace(out.Message)
		if msg == "" {
			msg = "Unknown error"
		}
		return "", &domain.ServerError{StatusCode: resp.StatusCode, Message: msg}
	}
	return out.Message, nil
}

// requireOK enforces the exact 200 the delete and status endpoints confirm
// success with.
func requireOK(resp *apiclient.Response, failure string) error {
	if resp.StatusCode != http.StatusOK {
		return &domain.ServerError{StatusCode: resp.StatusCode, Message: failure}
	}
	return nil
}

func listDonations(ctx context.Context, api API, path string) ([]domain.Donation, error) {
	resp, err := api.RequestJSON(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}
	var out []domain.Donation
	if err := resp.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
