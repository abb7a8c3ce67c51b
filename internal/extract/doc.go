// Package extract turns fetched site pages into structured data.
//
// Documents are parsed with goquery (golang.org/x/net/html underneath) after
// charset detection, so the extractor works with CSS selectors against
// two fixed page templates:
//   - the paginated follower listing, which yields raw athlete ids
//   - the athlete profile page, which yields a model.ProfileRecord
//
// It also reads the signed-in athlete id from the site header and the
// "new follower" links of the notifications list.
//
// Extraction never fails on missing markup: absent blocks become nil
// fields (or zero/false where the record has no "unknown" state).
package extract
