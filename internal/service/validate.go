package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/basa-org/basa-events/internal/model"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// isValidEmail does a basic structural check.
func isValidEmail(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}
	return len(local) > 0 && strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t\r\n")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeAttendee(a model.Attendee) model.Attendee {
	return model.Attendee{
		Name:    strings.TrimSpace(a.Name),
		Email:   normalizeEmail(a.Email),
		Company: strings.TrimSpace(a.Company),
		Phone:   strings.TrimSpace(a.Phone),
	}
}

// validateAttendees checks the first n attendees and returns them
// normalized. Extra entries beyond n are ignored.
func validateAttendees(attendees []model.Attendee, n int) ([]model.Attendee, error) {
	if len(attendees) < n {
		return nil, invalid("attendee information is required for all %d tickets", n)
	}
	out := make([]model.Attendee, n)
	for i := range n {
		a := normalizeAttendee(attendees[i])
		if a.Name == "" || a.Email == "" {
			return nil, invalid("please fill in name and email for attendee %d", i+1)
		}
		if !isValidEmail(a.Email) {
			return nil, invalid("attendee %d email is not a valid email address", i+1)
		}
		out[i] = a
	}
	return out, nil
}

// slugify derives a URL slug from a title.
func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
