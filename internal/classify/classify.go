package classify

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/followerscan/internal/model"
)

// Reason messages. Each matching rule contributes one, in rule order.
const (
	ReasonChineseBot       = "Likely Chinese bot"
	ReasonLowFollowerCount = "Low follower count"
	ReasonNewAccount       = "New account (under 30 days)"
	reasonFollowRatioFmt   = "High follow ratio (%.2f)"
)

const (
	// MinFollowers is the follower count at or above which the low-follower
	// rule does not match.
	MinFollowers = 5

	// MaxFollowRatio is the following/followers ratio above which the ratio
	// rule matches.
	MaxFollowRatio = 4.0

	// NewAccountAge is how recent a registration must be to count as new.
	NewAccountAge = 30 * 24 * time.Hour

	maxNameParts = 3
)

var (
	hanPattern       = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)
	titleWordPattern = regexp.MustCompile(`^[A-Z][a-z]+$`)
)

// commonSurnames are transliterated surnames that, together with a short
// title-cased name, mark an account as likely automated.
var commonSurnames = map[string]struct{}{
	"Li": {}, "Wang": {}, "Zhao": {}, "Chen": {}, "Zhang": {}, "Liu": {},
	"Yang": {}, "Huang": {}, "Xu": {}, "Wu": {}, "Sun": {}, "Gao": {},
	"Lin": {}, "Guo": {}, "Deng": {}, "Xinyan": {},
}

// Classify evaluates every rule against record at instant now.
// All matching rules are reported; evaluation does not short-circuit.
func Classify(record model.ProfileRecord, now time.Time) model.Verdict {
	reasons := make([]string, 0, 4)

	if record.Name != nil && IsLikelyChineseName(*record.Name) {
		reasons = append(reasons, ReasonChineseBot)
	}

	if record.FollowersCount != nil && *record.FollowersCount < MinFollowers {
		reasons = append(reasons, ReasonLowFollowerCount)
	}

	if ratio := FollowRatio(record); ratio > MaxFollowRatio {
		reasons = append(reasons, fmt.Sprintf(reasonFollowRatioFmt, ratio))
	}

	if record.MemberSince != nil && !record.MemberSince.IsZero() &&
		now.Sub(*record.MemberSince) < NewAccountAge {
		reasons = append(reasons, ReasonNewAccount)
	}

	return model.Verdict{
		Suspicious: len(reasons) > 0,
		Reasons:    reasons,
	}
}

// FollowRatio returns following/followers, or 0 when either count is
// unknown or zero.
func FollowRatio(record model.ProfileRecord) float64 {
	if record.FollowersCount == nil || record.FollowingCount == nil {
		return 0
	}
	followers, following := *record.FollowersCount, *record.FollowingCount
	if followers == 0 || following == 0 {
		return 0
	}
	return float64(following) / float64(followers)
}

// IsLikelyChineseName reports whether name contains CJK ideographs, or is a
// short title-cased name that includes a common transliterated surname.
func IsLikelyChineseName(name string) bool {
	if hanPattern.MatchString(name) {
		return true
	}

	parts := strings.Split(name, " ")
	if len(parts) == 0 || len(parts) > maxNameParts {
		return false
	}

	title := cases.Title(language.English)
	hasSurname := false
	for _, part := range parts {
		if !titleWordPattern.MatchString(part) {
			return false
		}
		if _, ok := commonSurnames[title.String(part)]; ok {
			hasSurname = true
		}
	}
	return hasSurname
}
