package token

import (
	"fmt"
	"slices"
	"time"

	"ShopFulfillment/pkg/pointers"
)

const (
	DefaultTTLMinutes = 60
	MaxTTLMinutes     = 24 * 60
)

type Token struct {
	Token       string     `json:"token"`
	FilePaths   []string   `json:"file_paths"`
	OrderID     *string    `json:"order_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Started     bool       `json:"started"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Purged reports whether the record was garbage-collected after expiry.
func (t Token) Purged() bool {
	return len(t.FilePaths) == 0
}

func (t Token) ExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

type IssueRequest struct {
	FilePath         string   `json:"file_path"`
	FilePaths        []string `json:"file_paths"`
	OrderID          *string  `json:"order_id"`
	ExpiresInMinutes *int     `json:"expires_in_minutes"`
}

// Files merges FilePath and FilePaths, validates every entry and drops duplicates.
func (r IssueRequest) Files() ([]string, error) {
	var files []string
	for _, f := range append([]string{r.FilePath}, r.FilePaths...) {
		if f == "" || slices.Contains(files, f) {
			continue
		}
		if err := ValidateFilePath(f); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: at least one file path is required", ErrValidation)
	}
	return files, nil
}

// TTL resolves the requested lifetime: absent or non-positive values fall back to
// the default, larger values are capped at MaxTTLMinutes.
func TTL(requested *int, defaultMinutes int) time.Duration {
	minutes := pointers.Deref(requested, 0)
	if minutes <= 0 {
		minutes = defaultMinutes
	}
	if minutes <= 0 {
		minutes = DefaultTTLMinutes
	}
	return time.Duration(min(minutes, MaxTTLMinutes)) * time.Minute
}

type Issued struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RedeemRequest struct {
	Token string `json:"token" binding:"required"`
}

type Redemption struct {
	Status    string    `json:"status"`
	FilePaths []string  `json:"file_paths"`
	ExpiresAt time.Time `json:"expires_at"`
}
