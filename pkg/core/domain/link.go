package domain

import "time"

// DeepLinkSpec is a registered deep link. Records are immutable once created.
type DeepLinkSpec struct {
	ID          string    `json:"id"`
	AppScheme   string    `json:"app_scheme"`
	AppPackage  string    `json:"app_package"`
	FallbackURL string    `json:"fallback_url"`
	CustomPath  string    `json:"custom_path,omitempty"`
	DeepLink    string    `json:"deep_link"` // scheme://path as submitted
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"created_at"`
}

// LinkInput is the caller-supplied part of a new DeepLinkSpec.
type LinkInput struct {
	AppScheme   string `json:"app_scheme"`
	AppPackage  string `json:"app_package"`
	FallbackURL string `json:"fallback_url"`
	CustomPath  string `json:"custom_path,omitempty"`
	Title       string `json:"title,omitempty"`
}
