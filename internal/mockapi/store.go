package mockapi

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fooddonation/internal/domain"
)

var (
	errNotFound   = errors.New("Donation not found")
	errForbidden  = errors.New("You are not allowed to modify this donation")
	errUserExists = errors.New("User already exists")
	errBadLogin   = errors.New("Invalid email or password")
)

type user struct {
	profile      domain.UserProfile
	address      string
	passwordHash []byte
}

type listing struct {
	donation domain.Donation
	ownerID  string
}

// store is the in-memory state behind the simulated backend.
type store struct {
	mu         sync.Mutex
	cost       int
	now        func() time.Time
	users      map[string]*user
	byEmail    map[string]string
	listings   []*listing
	uploads    map[string][]byte
	categories []domain.Category
}

func newStore(cost int, now func() time.Time) *store {
	return &store{
		cost:    cost,
		now:     now,
		users:   map[string]*user{},
		byEmail: map[string]string{},
		uploads: map[string][]byte{},
		categories: []domain.Category{
			{ID: "1", Title: "Fruits", Icon: "uploads/category-fruits.png"},
			{ID: "2", Title: "Vegetables", Icon: "uploads/category-vegetables.png"},
			{ID: "3", Title: "Bakery", Icon: "uploads/category-bakery.png"},
			{ID: "4", Title: "Cooked Meals", Icon: "uploads/category-meals.png"},
		},
	}
}

func (s *store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func (s *store) register(reg domain.Registration) (string, error) {
	email := strings.ToLower(strings.TrimSpace(reg.Email))
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return "", errUserExists
	}
	id := uuid.NewString()
	s.users[id] = &user{
		profile: domain.UserProfile{
			ID:          id,
			FullName:    strings.TrimSpace(reg.Name),
			Email:       email,
			PhoneNumber: strings.TrimSpace(reg.Phone),
		},
		address:      strings.TrimSpace(reg.Address),
		passwordHash: hash,
	}
	s.byEmail[email] = id
	return id, nil
}

func (s *store) authenticate(email, password string) (*domain.UserProfile, error) {
	s.mu.Lock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	var u *user
	if ok {
		u = s.users[id]
	}
	s.mu.Unlock()
	if u == nil {
		return nil, errBadLogin
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return nil, errBadLogin
	}
	profile := u.profile
	return &profile, nil
}

func (s *store) changePassword(userID, current, next string) error {
	s.mu.Lock()
	u := s.users[userID]
	s.mu.Unlock()
	if u == nil {
		return errBadLogin
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(current)); err != nil {
		return errors.New("Current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	u.passwordHash = hash
	s.mu.Unlock()
	return nil
}

func (s *store) profile(userID string) (domain.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.UserProfile{}, false
	}
	return u.profile, true
}

func (s *store) saveUpload(data []byte) string {
	path := "uploads/" + uuid.NewString() + ".jpg"
	s.mu.Lock()
	s.uploads[path] = append([]byte(nil), data...)
	s.mu.Unlock()
	return path
}

func (s *store) upload(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.uploads[path]
	return data, ok
}

func (s *store) addDonation(ownerID string, d domain.Donation) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.users[ownerID]
	if !ok {
		return "", errBadLogin
	}
	now := s.timestamp()
	d.ID = uuid.NewString()
	d.Status = domain.StatusAvailable
	d.User = domain.Donor{
		FullName:    owner.profile.FullName,
		PhoneNumber: owner.profile.PhoneNumber,
		Profile:     owner.profile.Profile,
	}
	d.Requests = []domain.Request{}
	d.CreatedAt = now
	d.UpdatedAt = now
	s.listings = append(s.listings, &listing{donation: d, ownerID: ownerID})
	return d.ID, nil
}

// list returns copies of the listings accepted by keep, oldest first.
func (s *store) list(keep func(*listing) bool) []domain.Donation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Donation, 0, len(s.listings))
	for _, l := range s.listings {
		if keep == nil || keep(l) {
			out = append(out, copyDonation(l.donation))
		}
	}
	return out
}

func (s *store) get(id string) (domain.Donation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.find(id)
	if l == nil {
		return domain.Donation{}, false
	}
	return copyDonation(l.donation), true
}

func (s *store) request(id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.find(id)
	if l == nil {
		return errNotFound
	}
	if l.ownerID == userID {
		return errors.New("You cannot request your own donation")
	}
	for _, r := range l.donation.Requests {
		if r.UserID == userID {
			return errors.New("You have already requested this item")
		}
	}
	l.donation.Requests = append(l.donation.Requests, domain.Request{
		ID:          uuid.NewString(),
		UserID:      userID,
		RequestDate: s.timestamp(),
	})
	l.donation.UpdatedAt = s.timestamp()
	return nil
}

func (s *store) decide(id, userID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.find(id)
	if l == nil {
		return errNotFound
	}
	if l.ownerID != userID {
		return errForbidden
	}
	l.donation.Status = status
	for i := range l.donation.Requests {
		l.donation.Requests[i].RequestStatus = status
	}
	l.donation.UpdatedAt = s.timestamp()
	return nil
}

// remove deletes the listing when userID owns it, or withdraws userID's
// request otherwise.
func (s *store) remove(id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.listings {
		if l.donation.ID != id {
			continue
		}
		if l.ownerID == userID {
			s.listings = append(s.listings[:i], s.listings[i+1:]...)
			return nil
		}
		for j, r := range l.donation.Requests {
			if r.UserID == userID {
				l.donation.Requests = append(l.donation.Requests[:j], l.donation.Requests[j+1:]...)
				return nil
			}
		}
		return errForbidden
	}
	return errNotFound
}

func (s *store) find(id string) *listing {
	for _, l := range s.listings {
		if l.donation.ID == id {
			return l
		}
	}
	return nil
}

func copyDonation(d domain.Donation) domain.Donation {
	d.Images = append([]string{}, d.Images...)
	d.Requests = append([]domain.Request{}, d.Requests...)
	return d
}
