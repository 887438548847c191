package payment

import (
	"crypto/rand"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Public order ids are short nanoid-style handles: 10 characters drawn from
// a lowercase alphanumeric alphabet, safe for URLs and easy to read aloud.
const (
	orderIDAlphabet = "1234567890abcdefghijklmnopqrstuvwxyz"
	orderIDLength   = 10
)

var (
	vpaRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{2,256}@[a-zA-Z]{2,64}$`)
	utrRegex = regexp.MustCompile(`^[0-9A-Za-z]{6,32}$`)
)

// NewOrderID generates a random public order id
func NewOrderID() (string, error) {
	buf := make([]byte, orderIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = orderIDAlphabet[int(b)%len(orderIDAlphabet)]
	}
	return string(buf), nil
}

// IsValidVPA reports whether the string is a plausible virtual payment
// address (handle@psp).
func IsValidVPA(vpa string) bool {
	return vpaRegex.MatchString(vpa)
}

// IsValidUTR reports whether the string is a plausible UPI transaction
// reference: 6 to 32 alphanumeric characters.
func IsValidUTR(utr string) bool {
	return utrRegex.MatchString(utr)
}

// MaskVPA hides the middle of the handle part, keeping the first and last
// character and the full PSP suffix. Short handles collapse entirely.
func MaskVPA(vpa string) string {
	at := strings.LastIndex(vpa, "@")
	if at < 0 {
		return "****"
	}
	handle, psp := vpa[:at], vpa[at:]
	if len(handle) <= 2 {
		return "****" + psp
	}
	return handle[:1] + "****" + handle[len(handle)-1:] + psp
}

// BuildUPILink renders the upi:// deep link for an order. Amount is rendered
// with two decimal places as PSP apps expect.
func BuildUPILink(vpa, payeeName string, amount decimal.Decimal, orderID, note string) string {
	q := url.Values{}
	q.Set("pa", vpa)
	if payeeName != "" {
		q.Set("pn", payeeName)
	}
	q.Set("am", amount.StringFixed(2))
	q.Set("cu", "INR")
	q.Set("tr", orderID)
	if note != "" {
		q.Set("tn", note)
	}
	return "upi://pay?" + q.Encode()
}
