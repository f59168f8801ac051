// Package contact builds the outbound chat link used to remind a debtor
// directly.
package contact

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"tagih/internal/core"
)

// ErrNoPhoneDigits is returned when a phone number has no digits left after
// sanitizing.
var ErrNoPhoneDigits = errors.New("phone number has no digits")

const waBaseURL = "https://wa.me/"

// Opener opens an outbound link. What "open" means is up to the host: a
// browser, a chat message with the link in it, and so on.
type Opener interface {
	Open(ctx context.Context, link string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, link string) error

func (f OpenerFunc) Open(ctx context.Context, link string) error { return f(ctx, link) }

// SanitizePhone keeps only the ASCII digits of phone.
func SanitizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BuildReminderMessage renders the chat text sent to the debtor. The due date
// is shown in loc.
func BuildReminderMessage(d core.Debt, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return fmt.Sprintf("Halo %s, ini pengingat tagihan sebesar %s yang jatuh tempo pada %s. Mohon konfirmasi pembayaran ya. Terima kasih!",
		d.DebtorName, core.FormatRupiah(d.Amount), core.FormatDueDateLong(d.DueDate.In(loc)))
}

// Link returns the wa.me deep link that opens a chat with phone, prefilled
// with message.
func Link(phone, message string) (string, error) {
	digits := SanitizePhone(phone)
	if digits == "" {
		return "", ErrNoPhoneDigits
	}
	// Spaces as %20, not '+'; a literal '+' is already %2B.
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return waBaseURL + digits + "?text=" + text, nil
}

// RemindDebtor builds the reminder link for d and hands it to opener.
func RemindDebtor(ctx context.Context, opener Opener, d core.Debt, loc *time.Location) error {
	link, err := Link(d.Phone, BuildReminderMessage(d, loc))
	if err != nil {
		return fmt.Errorf("debt %d: %w", d.ID, err)
	}
	if err := opener.Open(ctx, link); err != nil {
		return fmt.Errorf("open reminder link for debt %d: %w", d.ID, err)
	}
	return nil
}
