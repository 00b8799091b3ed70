// Package scraper pulls a job description and screening questions out of a
// job posting's HTML.
package scraper

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	minDescriptionChars = 50
	widenBelowChars     = 100
	maxSectionChars     = 10000
)

type platform struct {
	domain    string
	selectors []string
}

// 按顺序匹配；hostname 包含 domain 即命中。
var descriptionSelectors = []platform{
	{"linkedin.com", []string{".jobs-description__content", ".jobs-box__html-content", ".description__text", `[class*="job-description"]`}},
	{"indeed.com", []string{"#jobDescriptionText", ".jobsearch-jobDescriptionText", `[class*="jobDescription"]`}},
	{"glassdoor.com", []string{".jobDescriptionContent", `[class*="JobDescription"]`, ".desc"}},
	{"greenhouse.io", []string{"#content", ".job__description", `[class*="job-description"]`}},
	{"lever.co", []string{".posting-page", `[class*="posting-description"]`, ".content"}},
	{"upwork.com", []string{`[data-test="Description"]`, ".job-description", `[class*="description"]`}},
	{"fiverr.com", []string{".description-content", `[class*="description"]`}},
}

const (
	genericContainers = `article, main, [role="main"], .content, .description, .job-description, .posting-description`
	widenedContainers = `section, div[class*="description"], div[class*="content"]`
)

// Page is what the extension sends about the active tab.
type Page struct {
	URL       string `json:"url"`
	HTML      string `json:"html"`
	Selection string `json:"selection"`
}

// Extraction is the scrape result. Description is empty when nothing qualified.
type Extraction struct {
	Description string   `json:"description"`
	Questions   []string `json:"questions"`
}

// Extract parses the page once and runs both extractors on it.
func Extract(page Page) (*Extraction, error) {
	hostname := ""
	if page.URL != "" {
		u, err := url.Parse(page.URL)
		if err != nil {
			return nil, fmt.Errorf("parse page url: %w", err)
		}
		hostname = strings.ToLower(u.Hostname())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	return &Extraction{
		Description: JobDescription(doc, hostname, page.Selection),
		Questions:   ScreeningQuestions(doc, hostname),
	}, nil
}

// JobDescription tries the user's selection, then the platform table, then
// the largest generic content block.
func JobDescription(doc *goquery.Document, hostname, selection string) string {
	if s := strings.TrimSpace(selection); charCount(s) >= minDescriptionChars {
		return s
	}
	if s := byPlatformSelectors(doc, hostname); s != "" {
		return s
	}
	return largestTextBlock(doc)
}

func byPlatformSelectors(doc *goquery.Document, hostname string) string {
	for _, p := range descriptionSelectors {
		if !strings.Contains(hostname, p.domain) {
			continue
		}
		for _, sel := range p.selectors {
			text := strings.TrimSpace(doc.Find(sel).First().Text())
			if charCount(text) >= minDescriptionChars {
				return text
			}
		}
	}
	return ""
}

func largestTextBlock(doc *goquery.Document) string {
	best, bestLen := "", 0
	doc.Find(genericContainers).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if n := charCount(text); n > bestLen {
			best, bestLen = text, n
		}
	})

	if bestLen < widenBelowChars {
		doc.Find(widenedContainers).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if n := charCount(text); n > bestLen && n < maxSectionChars {
				best, bestLen = text, n
			}
		})
	}

	if bestLen >= minDescriptionChars {
		return best
	}
	return ""
}

func charCount(s string) int {
	return utf8.RuneCountInString(s)
}
