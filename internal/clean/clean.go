// Package clean reconciles raw candidates from multiple sources into a
// deduplicated, validated record set.
package clean

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	multiSpaceRe = regexp.MustCompile(`\s+`)
	nonDigitRe   = regexp.MustCompile(`\D`)
)

// NormalizeText applies Unicode NFC, lower-cases, and collapses whitespace.
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return multiSpaceRe.ReplaceAllString(s, " ")
}

// NormalizePhone strips everything but digits.
func NormalizePhone(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IdentityKey is the dedup key for a candidate or record: normalized name
// plus normalized location. Two entries with equal keys are merge candidates
// regardless of originating source.
func IdentityKey(name, location string) string {
	return NormalizeText(name) + "|" + NormalizeText(location)
}

// normalize rewrites a candidate's fields in place-normalized form, dropping
// empty values after normalization.
func normalize(c model.RawCandidate) model.RawCandidate {
	out := model.RawCandidate{
		Source:   c.Source,
		Name:     NormalizeText(c.Name),
		Location: NormalizeText(c.Location),
	}
	for _, e := range c.Emails {
		if v := NormalizeEmail(e); v != "" {
			out.Emails = append(out.Emails, v)
		}
	}
	for _, p := range c.Phones {
		if v := NormalizePhone(p); v != "" {
			out.Phones = append(out.Phones, v)
		}
	}
	for _, tm := range c.TeamMembers {
		person := model.Person{
			Name:  strings.TrimSpace(tm.Name),
			Title: strings.TrimSpace(tm.Title),
			Email: NormalizeEmail(tm.Email),
			Phone: NormalizePhone(tm.Phone),
		}
		if person.Name == "" && person.Email == "" {
			continue
		}
		out.TeamMembers = append(out.TeamMembers, person)
	}
	return out
}

// usable reports whether a normalized candidate carries any contact value.
// A record with an empty name, or with neither an email nor a phone nor a
// team member, is not actionable.
func usable(c model.RawCandidate) bool {
	if c.Name == "" {
		return false
	}
	return len(c.Emails) > 0 || len(c.Phones) > 0 || len(c.TeamMembers) > 0
}

// CountDistinct returns the number of distinct identity keys among the usable
// candidates. The orchestrator uses this for its soft quota check.
func CountDistinct(candidates []model.RawCandidate) int {
	seen := make(map[string]struct{})
	for _, c := range candidates {
		n := normalize(c)
		if !usable(n) {
			continue
		}
		seen[IdentityKey(n.Name, n.Location)] = struct{}{}
	}
	return len(seen)
}

// Clean normalizes, filters, merges, ranks, and trims raw candidates into at
// most quota business records. Output order is deterministic given identical
// input order: source-count descending, then contact-field count descending,
// ties broken by first-seen order.
func Clean(candidates []model.RawCandidate, quota int) []model.BusinessRecord {
	type group struct {
		record  model.BusinessRecord
		sources map[model.SourceType]struct{}
		emails  map[string]struct{}
		phones  map[string]struct{}
		people  map[string]struct{}
	}

	byKey := make(map[string]*group)
	var order []string

	for _, raw := range candidates {
		c := normalize(raw)
		if !usable(c) {
			continue
		}
		key := IdentityKey(c.Name, c.Location)
		g, ok := byKey[key]
		if !ok {
			g = &group{
				record:  model.BusinessRecord{Name: c.Name, Location: c.Location},
				sources: make(map[model.SourceType]struct{}),
				emails:  make(map[string]struct{}),
				phones:  make(map[string]struct{}),
				people:  make(map[string]struct{}),
			}
			byKey[key] = g
			order = append(order, key)
		}

		g.sources[c.Source] = struct{}{}
		if g.record.Location == "" {
			g.record.Location = c.Location
		}
		for _, e := range c.Emails {
			if _, dup := g.emails[e]; dup {
				continue
			}
			g.emails[e] = struct{}{}
			g.record.Emails = append(g.record.Emails, e)
		}
		for _, p := range c.Phones {
			if _, dup := g.phones[p]; dup {
				continue
			}
			g.phones[p] = struct{}{}
			g.record.Phones = append(g.record.Phones, p)
		}
		for _, tm := range c.TeamMembers {
			pk := strings.ToLower(tm.Name) + "|" + tm.Email
			if _, dup := g.people[pk]; dup {
				continue
			}
			g.people[pk] = struct{}{}
			g.record.TeamMembers = append(g.record.TeamMembers, tm)
		}
	}

	records := make([]model.BusinessRecord, 0, len(order))
	for _, key := range order {
		g := byKey[key]
		g.record.SourceCount = len(g.sources)
		records = append(records, g.record)
	}

	// Rank: stable sort keeps first-seen order for ties.
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].SourceCount != records[j].SourceCount {
			return records[i].SourceCount > records[j].SourceCount
		}
		return records[i].ContactFieldCount() > records[j].ContactFieldCount()
	})

	if quota > 0 && len(records) > quota {
		records = records[:quota]
	}
	return records
}
