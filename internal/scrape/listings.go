// Package scrape turns actuarylist.com listing pages into raw batches for the
// bulk ingestion endpoint.
package scrape

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"example.com/actuaryjobs/internal/domain"
)

// DefaultListingsURL is the public listings page.
const DefaultListingsURL = "https://www.actuarylist.com"

const (
	cardSelector     = "article"
	companySelector  = "p.Job_job-card__company__7T9qY"
	titleSelector    = "p.Job_job-card__position__ic1rc"
	linkSelector     = "a.Job_job-page-link__a5I5g"
	salarySelector   = "p.Job_job-card__salary__QZswp"
	locationSelector = "a.Job_job-card__location__bq7jX"
	tagSelector      = "div.Job_job-card__tags__zfriA a"
	postedSelector   = "p.Job_job-card__posted-on__NCZaJ"
)

var nonFullTimeMarkers = []string{"intern", "part", "contract", "temporary"}

// ParseListings extracts one raw job per listing card. Cards without a company,
// title or link are skipped. Relative links are resolved against base when given.
func ParseListings(r io.Reader, base *url.URL) ([]domain.RawJob, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var jobs []domain.RawJob
	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		company := card.Find(companySelector).First()
		title := card.Find(titleSelector).First()
		link, ok := card.Find(linkSelector).First().Attr("href")
		if company.Length() == 0 || title.Length() == 0 || !ok {
			return
		}

		var locations []string
		card.Find(locationSelector).Each(func(_ int, s *goquery.Selection) {
			locations = append(locations, cleanText(s.Text()))
		})
		var tags []string
		card.Find(tagSelector).Each(func(_ int, s *goquery.Selection) {
			tags = append(tags, cleanText(s.Text()))
		})

		location := strings.Join(locations, ", ")
		if location == "" {
			location = domain.NotAvailable
		}
		jobType := inferJobType(tags)

		jobs = append(jobs, domain.RawJob{
			Title:       cleanText(title.Text()),
			Company:     cleanText(company.Text()),
			Location:    domain.TextList(location),
			Salary:      cleanText(textOr(card.Find(salarySelector), domain.NotAvailable)),
			Description: resolveLink(base, link),
			JobType:     &jobType,
			Tags:        domain.TextList(strings.Join(tags, ", ")),
			PostingDate: textOr(card.Find(postedSelector), domain.NotAvailable),
		})
	})
	return jobs, nil
}

// inferJobType picks the first tag naming a non full-time arrangement.
func inferJobType(tags []string) string {
	for _, t := range tags {
		lower := strings.ToLower(t)
		for _, m := range nonFullTimeMarkers {
			if strings.Contains(lower, m) {
				return t
			}
		}
	}
	return domain.DefaultJobType
}

func cleanText(s string) string {
	return strings.Trim(domain.StripNonASCII(s), ",")
}

func textOr(s *goquery.Selection, fallback string) string {
	if s.Length() == 0 {
		return fallback
	}
	return strings.TrimSpace(s.First().Text())
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
