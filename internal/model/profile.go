package model

import "time"

// ProfileRecord is the structured form of one athlete profile page.
//
// Optional values are pointers: a nil FollowersCount means the page had no
// stats block, which is not the same as zero followers.
type ProfileRecord struct {
	// ID is the site's athlete identifier in its original string form.
	ID string `json:"id"`

	// Name is the display name with runs of whitespace collapsed.
	Name *string `json:"name"`

	// Location is the free-text location line.
	Location *string `json:"location"`

	// FollowersCount and FollowingCount come from the inline stats list.
	FollowersCount *int `json:"followers"`
	FollowingCount *int `json:"following"`

	// MemberSince is parsed from the "Member Since:" title of the name heading.
	MemberSince *time.Time `json:"memberSince"`

	// ClubCount is the number of clubs listed on the page.
	ClubCount int `json:"clubCount"`

	// CanBlock reports whether the viewer was offered a block action.
	CanBlock bool `json:"canBlock"`

	// AvatarURL is the resolved profile picture.
	AvatarURL *string `json:"profilePic"`

	// IsPremium is true when the avatar was served from the athlete's own
	// image path, which only subscribers get.
	IsPremium bool `json:"isPremium"`

	// SourceURL is the canonical profile URL used as the fetch target.
	SourceURL string `json:"url"`
}

// NewEmptyProfile returns the record used when a profile could not be
// fetched: identity is kept, every scraped field is unknown.
func NewEmptyProfile(id, sourceURL string) ProfileRecord {
	return ProfileRecord{
		ID:        id,
		SourceURL: sourceURL,
	}
}

// DisplayName returns the name or a placeholder built from the id.
func (p ProfileRecord) DisplayName() string {
	if p.Name != nil && *p.Name != "" {
		return *p.Name
	}
	return "athlete " + p.ID
}

// LocationText returns the location or an empty string.
func (p ProfileRecord) LocationText() string {
	if p.Location == nil {
		return ""
	}
	return *p.Location
}

// Clone returns a deep copy so callers can mutate the result freely.
func (p ProfileRecord) Clone() ProfileRecord {
	out := p
	out.Name = cloneString(p.Name)
	out.Location = cloneString(p.Location)
	out.AvatarURL = cloneString(p.AvatarURL)
	out.FollowersCount = cloneInt(p.FollowersCount)
	out.FollowingCount = cloneInt(p.FollowingCount)
	if p.MemberSince != nil {
		t := *p.MemberSince
		out.MemberSince = &t
	}
	return out
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to n.
func IntPtr(n int) *int {
	return &n
}

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time {
	return &t
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
