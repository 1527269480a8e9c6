// Package email delivers account notifications.
package email

import (
	"net/url"
	"strings"
)

// DefaultAppURL is used when no public application URL is configured.
const DefaultAppURL = "http://localhost:3000"

// Links builds the user-facing URLs embedded in notifications.
type Links struct {
	base string
}

func NewLinks(appURL string) Links {
	appURL = strings.TrimRight(strings.TrimSpace(appURL), "/")
	if appURL == "" {
		appURL = DefaultAppURL
	}
	return Links{base: appURL}
}

func (l Links) VerifyEmail(token string) string {
	return l.base + "/verify-email?token=" + url.QueryEscape(token)
}

func (l Links) ResetPassword(token string) string {
	return l.base + "/reset-password?token=" + url.QueryEscape(token)
}

func (l Links) Dashboard() string {
	return l.base + "/dashboard"
}
