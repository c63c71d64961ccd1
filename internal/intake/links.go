package intake

import (
	"net/url"
	"strings"
)

// Links builds the customer-facing URLs texted to callers.
type Links struct {
	BaseURL string
}

// BookingURL is the public booking page of the tenant.
func (l Links) BookingURL(slug string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/book/" + url.PathEscape(slug)
}

// ComplaintURL carries the originating call id so the complaint can be attributed.
func (l Links) ComplaintURL(slug, callID string) string {
	return strings.TrimRight(l.BaseURL, "/") + "/feedback/" + url.PathEscape(slug) + "?callId=" + url.QueryEscape(callID)
}
