package services

import (
	"context"
	"errors"
	"image"
	"image/color"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fooddonation/internal/apiclient"
	"fooddonation/internal/domain"
	"fooddonation/internal/infra/credentials"
	"fooddonation/internal/mockapi"
)

type backend struct {
	srv *mockapi.Server
	url string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	srv := mockapi.New(mockapi.Options{BcryptCost: bcrypt.MinCost})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &backend{srv: srv, url: ts.URL + "/"}
}

func (b *backend) register(t *testing.T, name, email string) {
	t.Helper()
	if _, err := b.srv.Register(domain.Registration{
		Name: name, Email: email, Password: "secret", Phone: "555-0100", Address: "1 Main St",
	}); err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
}

type clientEnv struct {
	store      *credentials.MemoryStore
	auth       *Auth
	donations  *Donations
	requests   *Requests
	profile    *Profile
	categories *Categories
}

func (b *backend) client(t *testing.T) *clientEnv {
	t.Helper()
	store := credentials.NewMemoryStore()
	session := credentials.NewSession(store)
	api, err := apiclient.NewClient(apiclient.Options{BaseURL: b.url, Credentials: session})
	if err != nil {
		t.Fatalf("new api client: %v", err)
	}
	return &clientEnv{
		store:      store,
		auth:       NewAuth(api, session),
		donations:  NewDonations(api),
		requests:   NewRequests(api),
		profile:    NewProfile(api),
		categories: NewCategories(api),
	}
}

func (b *backend) signedIn(t *testing.T, name, email string) *clientEnv {
	t.Helper()
	b.register(t, name, email)
	env := b.client(t)
	if _, err := env.auth.Login(context.Background(), email, "secret"); err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return env
}

func photo() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	return img
}

func sampleDonation() domain.NewDonation {
	return domain.NewDonation{
		FoodItem:      "Rice",
		Description:   "Two bags of basmati",
		Quantity:      "5kg",
		Location:      "12 Baker Street",
		AvailableTill: time.Date(2030, 8, 6, 15, 4, 5, 123456789, time.FixedZone("EDT", -4*3600)),
		Notes:         "Pick up after 6pm",
	}
}

func assertValidation(t *testing.T, err error) {
	t.Helper()
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %T %v, want ValidationError", err, err)
	}
}

func assertServerError(t *testing.T, err error, msg string) {
	t.Helper()
	var serr *domain.ServerError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %T %v, want ServerError", err, err)
	}
	if msg != "" && serr.Message != msg {
		t.Fatalf("message = %q, want %q", serr.Message, msg)
	}
}

func TestLocalValidationIssuesNoRequests(t *testing.T) {
	b := newBackend(t)
	env := b.client(t)
	ctx := context.Background()
	valid := domain.Registration{Name: "N", Email: "e@x.io", Password: "p", Phone: "1", Address: "a"}

	cases := []struct {
		name string
		call func() error
	}{
		{"login no email", func() error { _, err := env.auth.Login(ctx, "", "pw"); return err }},
		{"login no password", func() error { _, err := env.auth.Login(ctx, "a@b.c", ""); return err }},
		{"login blank email", func() error { _, err := env.auth.Login(ctx, "   ", "pw"); return err }},
		{"register no name", func() error { r := valid; r.Name = ""; _, err := env.auth.Register(ctx, r); return err }},
		{"register no email", func() error { r := valid; r.Email = ""; _, err := env.auth.Register(ctx, r); return err }},
		{"register no password", func() error { r := valid; r.Password = ""; _, err := env.auth.Register(ctx, r); return err }},
		{"register no phone", func() error { r := valid; r.Phone = ""; _, err := env.auth.Register(ctx, r); return err }},
		{"register no address", func() error { r := valid; r.Address = " "; _, err := env.auth.Register(ctx, r); return err }},
		{"create no food item", func() error { d := sampleDonation(); d.FoodItem = ""; _, err := env.donations.Create(ctx, d, photo()); return err }},
		{"create no description", func() error { d := sampleDonation(); d.Description = ""; _, err := env.donations.Create(ctx, d, photo()); return err }},
		{"create no quantity", func() error { d := sampleDonation(); d.Quantity = ""; _, err := env.donations.Create(ctx, d, photo()); return err }},
		{"create no location", func() error { d := sampleDonation(); d.Location = ""; _, err := env.donations.Create(ctx, d, photo()); return err }},
		{"create no image", func() error { _, err := env.donations.Create(ctx, sampleDonation(), nil); return err }},
		{"password mismatch", func() error { _, err := env.auth.ChangePassword(ctx, "old", "new1", "new2"); return err }},
		{"password blank", func() error { _, err := env.auth.ChangePassword(ctx, "", "new", "new"); return err }},
		{"decision not allowed", func() error { return env.donations.UpdateRequestStatus(ctx, "abc", "Pending") }},
		{"get without id", func() error { _, err := env.donations.Get(ctx, " "); return err }},
		{"delete without id", func() error { return env.requests.Delete(ctx, "") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertValidation(t, tc.call())
		})
	}
	if hits := b.srv.Hits(); hits != 0 {
		t.Fatalf("server hits = %d, want 0", hits)
	}
}

func TestAuthenticatedCallsWithoutTokenIssueNoRequests(t *testing.T) {
	b := newBackend(t)
	env := b.client(t)
	ctx := context.Background()

	calls := map[string]func() error{
		"list":     func() error { _, err := env.donations.List(ctx); return err },
		"mine":     func() error { _, err := env.donations.ListMine(ctx); return err },
		"requests": func() error { _, err := env.requests.ListMine(ctx); return err },
		"approved": func() error { _, err := env.requests.ListApproved(ctx); return err },
		"profile":  func() error { _, err := env.profile.Fetch(ctx); return err },
		"create":   func() error { _, err := env.donations.Create(ctx, sampleDonation(), photo()); return err },
		"request":  func() error { _, err := env.donations.Request(ctx, "x"); return err },
		"delete":   func() error { return env.donations.Delete(ctx, "x") },
		"decide":   func() error { return env.donations.UpdateRequestStatus(ctx, "x", "approved") },
		"password": func() error { _, err := env.auth.ChangePassword(ctx, "a", "b", "b"); return err },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("%s: err = %v, want ErrUnauthenticated", name, err)
		}
	}
	if hits := b.srv.Hits(); hits != 0 {
		t.Fatalf("server hits = %d, want 0", hits)
	}
}

func TestLoginStoresCredential(t *testing.T) {
	b := newBackend(t)
	b.register(t, "Donor", "donor@example.com")
	env := b.client(t)
	ctx := context.Background()

	cred, err := env.auth.Login(ctx, " donor@example.com ", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	raw, ok, _ := env.store.Load(ctx, credentials.KeyToken)
	if !ok || string(raw) != cred.Token {
		t.Fatalf("stored token = %q, want %q", raw, cred.Token)
	}
	email, err := env.auth.CurrentEmail(ctx)
	if err != nil || email != "donor@example.com" {
		t.Fatalf("CurrentEmail = %q, %v", email, err)
	}
	if signedIn, _ := env.auth.SignedIn(ctx); !signedIn {
		t.Fatal("expected SignedIn after login")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	b := newBackend(t)
	b.register(t, "Donor", "donor@example.com")
	env := b.client(t)
	_, err := env.auth.Login(context.Background(), "donor@example.com", "wrong")
	assertServerError(t, err, "Invalid email or password")
	if signedIn, _ := env.auth.SignedIn(context.Background()); signedIn {
		t.Fatal("failed login must not store a token")
	}
}

func TestRegister(t *testing.T) {
	b := newBackend(t)
	env := b.client(t)
	ctx := context.Background()
	reg := domain.Registration{Name: "New", Email: "new@example.com", Password: "pw", Phone: "1", Address: "2 Side St"}

	msg, err := env.auth.Register(ctx, reg)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if msg == "" {
		t.Fatal("expected a success message")
	}
	_, err = env.auth.Register(ctx, reg)
	assertServerError(t, err, "User already exists")
}

func TestLogoutRemovesBothKeys(t *testing.T) {
	b := newBackend(t)
	env := b.signedIn(t, "Donor", "donor@example.com")
	ctx := context.Background()

	if err := env.auth.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	for _, key := range []string{credentials.KeyToken, credentials.KeyEmail} {
		if _, ok, err := env.store.Load(ctx, key); ok || err != nil {
			t.Fatalf("Load(%s) after logout: ok=%v err=%v", key, ok, err)
		}
	}
	if _, err := env.donations.List(ctx); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("List after logout err = %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	b := newBackend(t)
	env := b.signedIn(t, "Donor", "donor@example.com")
	ctx := context.Background()

	_, err := env.auth.ChangePassword(ctx, "not-it", "fresh", "fresh")
	assertServerError(t, err, "Current password is incorrect")

	msg, err := env.auth.ChangePassword(ctx, "secret", "fresh", "fresh")
	if err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if msg == "" {
		t.Fatal("expected confirmation message")
	}
	if _, err := b.client(t).auth.Login(ctx, "donor@example.com", "fresh"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestCreateDonationRoundTrip(t *testing.T) {
	b := newBackend(t)
	env := b.signedIn(t, "Donor", "donor@example.com")
	ctx := context.Background()
	in := sampleDonation()

	if _, err := env.donations.Create(ctx, in, photo()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	mine, err := env.donations.ListMine(ctx)
	if err != nil {
		t.Fatalf("ListMine: %v", err)
	}
	if len(mine) != 1 || mine[0].ID == "" {
		t.Fatalf("ListMine = %+v", mine)
	}
	got, err := env.donations.Get(ctx, mine[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FoodItem != in.FoodItem || got.Description != in.Description || got.Quantity != in.Quantity ||
		got.Location != in.Location || got.Notes != in.Notes {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if want := in.AvailableTill.Truncate(time.Millisecond); !got.AvailableTill.Equal(want) {
		t.Fatalf("availableTill = %s, want %s", got.AvailableTill, want)
	}
	if got.Status != domain.StatusAvailable {
		t.Fatalf("status = %q, want Available", got.Status)
	}
	if got.User.FullName != "Donor" {
		t.Fatalf("owner = %+v", got.User)
	}
	primary, ok := got.PrimaryImage()
	if !ok {
		t.Fatal("expected an uploaded image path")
	}

	api, _ := apiclient.NewClient(apiclient.Options{BaseURL: b.url})
	asset, err := api.FetchAsset(ctx, primary)
	if err != nil {
		t.Fatalf("FetchAsset: %v", err)
	}
	if asset.ContentType != "image/jpeg" || len(asset.Data) == 0 {
		t.Fatalf("asset = %s, %d bytes", asset.ContentType, len(asset.Data))
	}
}

func TestRequestAndDecide(t *testing.T) {
	b := newBackend(t)
	donor := b.signedIn(t, "Donor", "donor@example.com")
	taker := b.signedIn(t, "Taker", "taker@example.com")
	ctx := context.Background()

	if _, err := donor.donations.Create(ctx, sampleDonation(), photo()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	feed, err := taker.donations.List(ctx)
	if err != nil || len(feed) != 1 {
		t.Fatalf("List = %v, %v", feed, err)
	}
	id := feed[0].ID

	_, err = donor.donations.Request(ctx, id)
	assertServerError(t, err, "You cannot request your own donation")

	if _, err := taker.donations.Request(ctx, id); err != nil {
		t.Fatalf("Request: %v", err)
	}
	_, err = taker.donations.Request(ctx, id)
	assertServerError(t, err, "You have already requested this item")

	requested, err := taker.requests.ListMine(ctx)
	if err != nil || len(requested) != 1 {
		t.Fatalf("requests.ListMine = %v, %v", requested, err)
	}
	if req := requested[0].Requests[0]; !req.IsPending() || req.Status() != domain.RequestStatusPending {
		t.Fatalf("request status = %q", req.RequestStatus)
	}

	err = taker.donations.UpdateRequestStatus(ctx, id, "Approved")
	assertServerError(t, err, "")
	if got, _ := donor.donations.Get(ctx, id); got.Status != domain.StatusAvailable {
		t.Fatalf("status after failed update = %q", got.Status)
	}

	if err := donor.donations.UpdateRequestStatus(ctx, id, "approved"); err != nil {
		t.Fatalf("UpdateRequestStatus: %v", err)
	}
	mine, err := donor.donations.ListMine(ctx)
	if err != nil || len(mine) != 1 {
		t.Fatalf("ListMine = %v, %v", mine, err)
	}
	if mine[0].Status != domain.StatusApproved || mine[0].Requests[0].Status() != domain.StatusApproved {
		t.Fatalf("after decision: %+v", mine[0])
	}
	approved, err := donor.requests.ListApproved(ctx)
	if err != nil || len(approved) != 1 || len(approved[0].Requests) != 1 {
		t.Fatalf("ListApproved = %v, %v", approved, err)
	}
}

func TestDeleteRules(t *testing.T) {
	b := newBackend(t)
	donor := b.signedIn(t, "Donor", "donor@example.com")
	taker := b.signedIn(t, "Taker", "taker@example.com")
	stranger := b.signedIn(t, "Stranger", "stranger@example.com")
	ctx := context.Background()

	if _, err := donor.donations.Create(ctx, sampleDonation(), photo()); err != nil {
		t.Fatalf("Create: %v", err)
	}
	mine, _ := donor.donations.ListMine(ctx)
	id := mine[0].ID

	assertServerError(t, stranger.donations.Delete(ctx, id), "")
	assertServerError(t, donor.donations.Delete(ctx, "missing-id"), "Donation not found")

	if _, err := taker.donations.Request(ctx, id); err != nil {
		t.Fatalf("Request: %v", err)
	}
	if err := taker.requests.Delete(ctx, id); err != nil {
		t.Fatalf("requests.Delete: %v", err)
	}
	if requested, _ := taker.requests.ListMine(ctx); len(requested) != 0 {
		t.Fatalf("request still listed: %v", requested)
	}

	if err := donor.donations.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := donor.donations.Get(ctx, id); err == nil {
		t.Fatal("expected donation to be gone")
	}
}

func TestProfileAndCategories(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	cats, err := b.client(t).categories.List(ctx)
	if err != nil {
		t.Fatalf("categories without login: %v", err)
	}
	if len(cats) == 0 || cats[0].Title == "" || cats[0].Icon == "" {
		t.Fatalf("categories = %+v", cats)
	}

	env := b.signedIn(t, "Donor", "donor@example.com")
	profile, err := env.profile.Fetch(ctx)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if profile.FullName != "Donor" || profile.Email != "donor@example.com" || profile.ID == "" {
		t.Fatalf("profile = %+v", profile)
	}
}
