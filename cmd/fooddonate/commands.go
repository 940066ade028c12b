package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"fooddonation/internal/domain"
	"fooddonation/internal/state"
)

var untilLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// positional parses fs and requires exactly n positional arguments.
func positional(fs *flag.FlagSet, args []string, n int, what string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != n {
		return nil, fmt.Errorf("%s: expected %s", fs.Name(), what)
	}
	return fs.Args(), nil
}

func await(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if _, err := positional(fs, args, 0, "no arguments"); err != nil {
		return err
	}
	cred, err := a.auth.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", cred.Email)
	return nil
}

func (a *app) logout(ctx context.Context, args []string) error {
	if _, err := positional(newFlagSet("logout"), args, 0, "no arguments"); err != nil {
		return err
	}
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	var reg domain.Registration
	fs.StringVar(&reg.Name, "name", "", "full name")
	fs.StringVar(&reg.Email, "email", "", "email address")
	fs.StringVar(&reg.Password, "password", "", "password")
	fs.StringVar(&reg.Phone, "phone", "", "phone number")
	fs.StringVar(&reg.Address, "address", "", "postal address")
	if _, err := positional(fs, args, 0, "no arguments"); err != nil {
		return err
	}
	msg, err := a.auth.Register(ctx, reg)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *app) changePassword(ctx context.Context, args []string) error {
	fs := newFlagSet("passwd")
	current := fs.String("current", "", "current password")
	next := fs.String("new", "", "new password")
	confirm := fs.String("confirm", "", "new password again")
	if _, err := positional(fs, args, 0, "no arguments"); err != nil {
		return err
	}
	msg, err := a.auth.ChangePassword(ctx, *current, *next, *confirm)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *app) showList(ctx context.Context, list *state.DonationList) error {
	if err := await(ctx, list.Refresh(ctx)); err != nil {
		return err
	}
	if err := list.Err(); err != nil {
		return err
	}
	printDonations(a.out, list.Items())
	return nil
}

func (a *app) feed(ctx context.Context, args []string) error {
	if _, err := positional(newFlagSet("feed"), args, 0, "no arguments"); err != nil {
		return err
	}
	return a.showList(ctx, state.NewFeed(a.loop, a.donations))
}

func (a *app) mine(ctx context.Context, args []string) error {
	if _, err := positional(newFlagSet("mine"), args, 0, "no arguments"); err != nil {
		return err
	}
	return a.showList(ctx, state.NewMyDonations(a.loop, a.donations))
}

func (a *app) myRequests(ctx context.Context, args []string) error {
	if _, err := positional(newFlagSet("requests"), args, 0, "no arguments"); err != nil {
		return err
	}
	return a.showList(ctx, state.NewMyRequests(a.loop, a.requests))
}

func (a *app) approved(ctx context.Context, args []string) error {
	if _, err := positional(newFlagSet("approved"), args, 0, "no arguments"); err != nil {
		return err
	}
	return a.showList(ctx, state.NewApproved(a.loop, a.requests))
}

func (a *app) show(ctx context.Context, args []string) error {
	rest, err := positional(newFlagSet("show"), args, 1, "a donation id")
	if err != nil {
		return err
	}
	d, err := a.donations.Get(ctx, rest[0])
	if err != nil {
		return err
	}
	printDonation(a.out, d)
	return nil
}

func (a *app) donate(ctx context.Context, args []string) error {
	fs := newFlagSet("donate")
	var in domain.NewDonation
	fs.StringVar(&in.FoodItem, "item", "", "food item")
	fs.StringVar(&in.Description, "description", "", "description")
	fs.StringVar(&in.Quantity, "quantity", "", "quantity, e.g. 5kg")
	fs.StringVar(&in.Location, "location", "", "pickup location")
	fs.StringVar(&in.Notes, "notes", "", "optional notes")
	until := fs.String("until", "", "available until (local time)")
	imagePath := fs.String("image", "", "photo to upload (JPEG or PNG)")
	if _, err := positional(fs, args, 0, "no arguments"); err != nil {
		return err
	}
	if strings.TrimSpace(*until) != "" {
		t, err := parseUntil(*until)
		if err != nil {
			return err
		}
		in.AvailableTill = t
	}
	var img image.Image
	if strings.TrimSpace(*imagePath) != "" {
		decoded, err := loadImage(*imagePath)
		if err != nil {
			return err
		}
		img = decoded
	}
	msg, err := a.donations.Create(ctx, in, img)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *app) request(ctx context.Context, args []string) error {
	rest, err := positional(newFlagSet("request"), args, 1, "a donation id")
	if err != nil {
		return err
	}
	msg, err := a.donations.Request(ctx, rest[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *app) status(ctx context.Context, args []string) error {
	rest, err := positional(newFlagSet("status"), args, 2, "a donation id and approved|rejected")
	if err != nil {
		return err
	}
	list := state.NewMyDonations(a.loop, a.donations)
	if err := await(ctx, list.UpdateStatus(ctx, rest[0], rest[1])); err != nil {
		return err
	}
	if err := list.Err(); err != nil {
		return err
	}
	d, ok := list.Find(rest[0])
	if !ok {
		return fmt.Errorf("donation %s is no longer listed", rest[0])
	}
	fmt.Fprintf(a.out, "%s is now %s\n", d.FoodItem, d.Status)
	return nil
}

func (a *app) deleteDonation(ctx context.Context, args []string) error {
	rest, err := positional(newFlagSet("delete"), args, 1, "a donation id")
	if err != nil {
		return err
	}
	return a.removeFrom(ctx, state.NewMyDonations(a.loop, a.donations), rest[0], "Deleted")
}

func (a *app) cancelRequest(ctx context.Context, args []string) error {
	rest, err := positional(newFlagSet("cancel"), args, 1, "a donation id")
	if err != nil {
		return err
	}
	return a.removeFrom(ctx, state.NewMyRequests(a.loop, a.requests), rest[0], "Request withdrawn")
}

func (a *app) removeFrom(ctx context.Context, list *state.DonationList, id, done string) error {
	if err := await(ctx, list.Remove(ctx, id)); err != nil {
		return err
	}
	if err := list.Err(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, done)
	return nil
}

func (a *app) showProfile(ctx context.Context, args []string) error {
	if _, err := positional(newFlagSet("profile"), args, 0, "no arguments"); err != nil {
		return err
	}
	p, err := a.profile.Fetch(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Name:  %s\nEmail: %s\nPhone: %s\n", p.FullName, p.Email, p.PhoneNumber)
	if p.Profile != "" {
		fmt.Fprintf(a.out, "Photo: %s\n", a.api.URL(p.Profile))
	}
	return nil
}

func (a *app) listCategories(ctx context.Context, args []string) error {
	if _, err := positional(newFlagSet("categories"), args, 0, "no arguments"); err != nil {
		return err
	}
	cats, err := a.categories.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tICON")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%s\n", c.Title, a.api.URL(c.Icon))
	}
	return tw.Flush()
}

func (a *app) asset(ctx context.Context, args []string) error {
	fs := newFlagSet("asset")
	output := fs.String("o", "", "write to FILE instead of stdout")
	rest, err := positional(fs, args, 1, "an asset path")
	if err != nil {
		return err
	}
	asset, err := a.api.FetchAsset(ctx, rest[0])
	if err != nil {
		return err
	}
	if *output == "" {
		_, err = a.out.Write(asset.Data)
		return err
	}
	if err := os.WriteFile(*output, asset.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *output, err)
	}
	fmt.Fprintf(a.out, "Saved %d bytes (%s) to %s\n", len(asset.Data), asset.ContentType, *output)
	return nil
}

func parseUntil(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range untilLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, domain.Invalid("availableTill", "Could not read date %q; use YYYY-MM-DDTHH:MM", raw)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, domain.Invalid("image", "Unsupported image format; use JPEG or PNG")
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

func printDonations(w io.Writer, items []domain.Donation) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No donations")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFOOD\tQUANTITY\tLOCATION\tAVAILABLE TILL\tSTATUS\tREQUESTS")
	for _, d := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			d.ID, d.FoodItem, d.Quantity, d.Location,
			d.AvailableTill.Local().Format("2006-01-02 15:04"), d.Status, len(d.Requests))
	}
	_ = tw.Flush()
}

func printDonation(w io.Writer, d *domain.Donation) {
	fmt.Fprintf(w, "%s (%s)\n", d.FoodItem, d.Status)
	fmt.Fprintf(w, "  %s\n", d.Description)
	fmt.Fprintf(w, "Quantity:       %s\n", d.Quantity)
	fmt.Fprintf(w, "Location:       %s\n", d.Location)
	fmt.Fprintf(w, "Available till: %s\n", d.AvailableTill.Local().Format("2006-01-02 15:04"))
	if d.Notes != "" {
		fmt.Fprintf(w, "Notes:          %s\n", d.Notes)
	}
	fmt.Fprintf(w, "Donor:          %s, %s\n", d.User.FullName, d.User.PhoneNumber)
	if img, ok := d.PrimaryImage(); ok {
		fmt.Fprintf(w, "Image:          %s\n", img)
	}
	for _, r := range d.Requests {
		fmt.Fprintf(w, "Request %s by %s on %s: %s\n",
			r.ID, r.UserID, r.RequestDate.Local().Format("2006-01-02"), r.Status())
	}
}
