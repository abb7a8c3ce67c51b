package extract

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/followerscan/internal/model"
)

// Selectors for the two page templates.
const (
	selectorListingRow      = "li[data-athlete-id]"
	selectorStats           = "ul.inline-stats"
	selectorName            = "h1.athlete-name"
	selectorLocation        = "div.location"
	selectorBlockButton     = "button.block"
	selectorClubs           = "ul.clubs > li"
	selectorAvatarWrapper   = `[data-react-class="AvatarWrapper"]`
	selectorPrivateAvatar   = ".avatar-img-wrapper img"
	selectorSocialImage     = `meta[property="og:image"]`
	selectorUserMenuProfile = `.user-menu a[href^="/athletes/"]`
	selectorNotifList       = "#notifications-list"
	selectorNotifications   = "#notifications-list li"
)

var (
	digitsPattern      = regexp.MustCompile(`\d+`)
	whitespacePattern  = regexp.MustCompile(`\s{2,}`)
	memberSincePattern = regexp.MustCompile(`Member Since:\s*(.+)`)
)

// memberSinceLayouts are tried in order when parsing the "Member Since:" value.
var memberSinceLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"January 2006",
	"Jan 2006",
	"2006-01-02",
	"01/02/2006",
	time.RFC3339,
}

// Extractor reads structured data out of parsed site pages.
type Extractor struct {
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a custom logger for the extractor.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// FollowerIDs returns the athlete ids of a follower listing page in document
// order. Duplicates are kept; the crawler deduplicates.
func (e *Extractor) FollowerIDs(doc *goquery.Document) []string {
	ids := make([]string, 0)
	doc.Find(selectorListingRow).Each(func(_ int, s *goquery.Selection) {
		if id, ok := s.Attr("data-athlete-id"); ok && id != "" {
			ids = append(ids, id)
		}
	})
	return ids
}

// Profile builds a ProfileRecord from an athlete profile page.
// athleteID is the id the page was fetched for; sourceURL is the profile URL
// and the base for relative image sources.
func (e *Extractor) Profile(doc *goquery.Document, athleteID, sourceURL string) model.ProfileRecord {
	record := model.NewEmptyProfile(athleteID, sourceURL)

	record.FollowersCount, record.FollowingCount = e.stats(doc)

	nameEl := doc.Find(selectorName).First()
	record.Name = e.name(nameEl)
	record.MemberSince = e.memberSince(nameEl)

	if loc := strings.TrimSpace(doc.Find(selectorLocation).First().Text()); loc != "" {
		record.Location = &loc
	}

	record.CanBlock = doc.Find(selectorBlockButton).Length() > 0
	record.ClubCount = doc.Find(selectorClubs).Length()

	record.AvatarURL, record.IsPremium = e.avatar(doc, athleteID, sourceURL)

	return record
}

// stats reads the follower and following counts. Both are nil when the stats
// block is missing.
func (e *Extractor) stats(doc *goquery.Document) (*int, *int) {
	block := doc.Find(selectorStats).First()
	if block.Length() == 0 {
		return nil, nil
	}

	var followers, following *int
	block.Find("li").Each(func(_ int, li *goquery.Selection) {
		label := strings.ToLower(li.Text())
		match := digitsPattern.FindString(label)
		if match == "" {
			return
		}
		n, err := strconv.Atoi(match)
		if err != nil {
			return
		}
		if strings.Contains(label, "followers") {
			v := n
			followers = &v
		}
		if strings.Contains(label, "following") {
			v := n
			following = &v
		}
	})
	return followers, following
}

// name collapses whitespace runs in the athlete name heading.
func (e *Extractor) name(nameEl *goquery.Selection) *string {
	if nameEl.Length() == 0 {
		return nil
	}
	name := strings.TrimSpace(whitespacePattern.ReplaceAllString(nameEl.Text(), " "))
	if name == "" {
		return nil
	}
	return &name
}

// memberSince parses the heading's "Member Since: <date>" title.
func (e *Extractor) memberSince(nameEl *goquery.Selection) *time.Time {
	title, ok := nameEl.Attr("title")
	if !ok {
		return nil
	}
	m := memberSincePattern.FindStringSubmatch(title)
	if m == nil {
		return nil
	}
	t, ok := ParseMemberSince(m[1])
	if !ok {
		e.logger.Debug("unparsable member since date", "value", m[1])
		return nil
	}
	return &t
}

// ParseMemberSince parses the date text that follows "Member Since:".
func ParseMemberSince(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range memberSinceLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// avatarProps is the part of the AvatarWrapper props blob we need.
type avatarProps struct {
	Src string `json:"src"`
}

// avatar resolves the profile picture, first match wins:
//  1. an AvatarWrapper whose props src lives under athletes/<id>/ (premium)
//  2. the img inside the first AvatarWrapper that has props
//  3. the private-profile avatar image
//  4. the og:image meta tag
func (e *Extractor) avatar(doc *goquery.Document, athleteID, sourceURL string) (*string, bool) {
	var (
		pic     string
		premium bool
	)

	doc.Find(selectorAvatarWrapper).EachWithBreak(func(_ int, wrapper *goquery.Selection) bool {
		rawProps, ok := wrapper.Attr("data-react-props")
		if !ok || rawProps == "" {
			return true
		}

		var props avatarProps
		if err := json.Unmarshal([]byte(rawProps), &props); err != nil {
			e.logger.Debug("failed to parse AvatarWrapper props", "athlete", athleteID, "error", err)
		} else if athleteID != "" && strings.Contains(props.Src, "athletes/"+athleteID+"/") {
			pic, premium = props.Src, true
			return false
		}

		if src, ok := wrapper.Find("img").First().Attr("src"); ok && src != "" {
			pic = resolveURL(sourceURL, src)
			return false
		}
		return true
	})
	if pic != "" {
		return &pic, premium
	}

	if src, ok := doc.Find(selectorPrivateAvatar).First().Attr("src"); ok && src != "" {
		pic = resolveURL(sourceURL, src)
		return &pic, false
	}

	if content, ok := doc.Find(selectorSocialImage).First().Attr("content"); ok && content != "" {
		return &content, false
	}

	e.logger.Debug("no avatar found", "athlete", athleteID)
	return nil, false
}

// ViewerID returns the signed-in athlete's id from the site header, or "".
func (e *Extractor) ViewerID(doc *goquery.Document) string {
	href, ok := doc.Find(selectorUserMenuProfile).First().Attr("href")
	if !ok {
		return ""
	}
	return model.ExtractAthleteID(href)
}

// NotificationFeed is what one load of the notifications page shows.
type NotificationFeed struct {
	// Present is true when the page carries the notifications list.
	Present bool

	// Items counts every list entry, whatever its kind.
	Items int

	// NewFollowerLinks are the profile links of "new follower" entries.
	NewFollowerLinks []string
}

// Notifications reads the notifications list of doc.
func (e *Extractor) Notifications(doc *goquery.Document, baseURL string) NotificationFeed {
	return NotificationFeed{
		Present:          doc.Find(selectorNotifList).Length() > 0,
		Items:            doc.Find(selectorNotifications).Length(),
		NewFollowerLinks: e.NewFollowerLinks(doc, baseURL),
	}
}

// NewFollowerLinks returns the profile links of "new follower" entries in
// the notifications list, resolved against baseURL.
func (e *Extractor) NewFollowerLinks(doc *goquery.Document, baseURL string) []string {
	links := make([]string, 0)
	doc.Find(selectorNotifications).Each(func(_ int, li *goquery.Selection) {
		if !strings.Contains(strings.ToLower(li.Text()), "new follower") {
			return
		}
		if href, ok := li.Find("a[href]").First().Attr("href"); ok && href != "" {
			links = append(links, resolveURL(baseURL, href))
		}
	})
	return links
}

// resolveURL resolves ref against base, returning ref unchanged when either
// fails to parse.
func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
