package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestParseDecision(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Approved", StatusApproved, true},
		{"approved", StatusApproved, true},
		{" REJECTED ", StatusRejected, true},
		{"Pending", "", false},
		{"Available", "", false},
		{"", "", false},
		{"approve", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseDecision(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseDecision(%q) = %q, %v, want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation", Invalid("email", "Please fill in all fields"), "Please fill in all fields"},
		{"unauthenticated", fmt.Errorf("list: %w", ErrUnauthenticated), "Authorization token not found"},
		{"server", &ServerError{StatusCode: 400, Message: "User already exists"}, "User already exists"},
		{"network", &NetworkError{Err: errors.New("dial tcp: refused")}, "network error: dial tcp: refused"},
		{"decode", &DecodeError{Err: errors.New("unexpected EOF")}, "Failed to parse response"},
		{"other", errors.New("boom"), "boom"},
	}
	for _, tc := range cases {
		if got := UserMessage(tc.err); got != tc.want {
			t.Fatalf("%s: UserMessage = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	in := time.Date(2024, 3, 9, 20, 5, 7, 987654321, time.FixedZone("X", 2*3600))
	if got, want := FormatTimestamp(in), "2024-03-09T18:05:07.987Z"; got != want {
		t.Fatalf("FormatTimestamp = %q, want %q", got, want)
	}
}

func TestRequestStatusDefaultsToPending(t *testing.T) {
	var d Donation
	raw := `{"_id":"1","foodItem":"Rice","availableTill":"2024-03-09T18:05:07.987Z",
		"images":["uploads/a.jpg","uploads/b.jpg"],
		"requests":[{"_id":"r1","userId":"u1","requestDate":"2024-03-09T18:00:00Z"},
		{"_id":"r2","userId":"u2","requestDate":"2024-03-09T18:00:00Z","requestStatus":"Approved"}]}`
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !d.Requests[0].IsPending() || d.Requests[0].Status() != RequestStatusPending {
		t.Fatalf("first request status = %q", d.Requests[0].Status())
	}
	if d.Requests[1].IsPending() || d.Requests[1].Status() != StatusApproved {
		t.Fatalf("second request status = %q", d.Requests[1].Status())
	}
	if img, ok := d.PrimaryImage(); !ok || img != "uploads/a.jpg" {
		t.Fatalf("PrimaryImage = %q, %v", img, ok)
	}
	if _, ok := (Donation{}).PrimaryImage(); ok {
		t.Fatal("empty donation has no primary image")
	}
}
