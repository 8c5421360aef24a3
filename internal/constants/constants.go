package constants

import "time"

// Context and session keys
const (
	ContextKeyUserID       = "user_id"
	ContextKeyRequestID    = "request_id"
	ContextKeyListing      = "listing"
	ContextKeyOrganization = "organization"
	ContextKeyMember       = "organization_member"

	SessionCookieName = "classifieds_session"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 30
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
	AccessTokenTTL    = 24 * time.Hour
)

// Listings
const (
	MaxListingTags       = 8
	MaxListingTitle      = 128
	MaxSuggestedTags     = 8
	SponsorshipTermMonth = 1
)
