package sso

import (
	"context"
	"fmt"
	"net/url"
	"sync"
)

// Navigator stands in for the browser location: it reports the current
// URL, navigates to other URLs and rewrites the visible URL in place
type Navigator interface {
	Location() *url.URL
	Origin() string
	Redirect(ctx context.Context, target string) error
	Replace(u *url.URL)
}

// Origin returns scheme://host of u
func Origin(u *url.URL) string {
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
}

// MemoryNavigator is a Navigator that records redirects instead of
// following them
type MemoryNavigator struct {
	mu        sync.Mutex
	location  *url.URL
	redirects []string
}

// NewMemoryNavigator creates a navigator positioned at rawURL
func NewMemoryNavigator(rawURL string) (*MemoryNavigator, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid location: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("location must be absolute: %q", rawURL)
	}
	return &MemoryNavigator{location: u}, nil
}

func (n *MemoryNavigator) Location() *url.URL {
	n.mu.Lock()
	defer n.mu.Unlock()
	u := *n.location
	return &u
}

func (n *MemoryNavigator) Origin() string {
	return Origin(n.Location())
}

func (n *MemoryNavigator) Redirect(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.redirects = append(n.redirects, target)
	return nil
}

func (n *MemoryNavigator) Replace(u *url.URL) {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := *u
	n.location = &c
}

// Navigate moves to rawURL, as a browser does when a redirect lands
func (n *MemoryNavigator) Navigate(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid location: %w", err)
	}
	n.Replace(u)
	return nil
}

// Redirects returns the redirect targets so far
func (n *MemoryNavigator) Redirects() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.redirects...)
}

// LastRedirect returns the most recent redirect target, or ""
func (n *MemoryNavigator) LastRedirect() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.redirects) == 0 {
		return ""
	}
	return n.redirects[len(n.redirects)-1]
}
