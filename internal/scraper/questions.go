package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var questionSelectors = []platform{
	{"upwork.com", []string{`[data-test="Questions"]`, ".questions-listing", `[class*="questions"]`, `[class*="screening"]`}},
}

var questionKeywords = []string{
	"you will be asked to answer the following",
	"screening question",
	"application question",
	"please answer",
}

const (
	keywordContainers = `section, div, article, main, [role="main"]`
	minQuestionChars  = 10
)

var (
	numberedLine     = regexp.MustCompile(`^\d+[.)]\s`)
	questionPrefixes = []*regexp.Regexp{
		regexp.MustCompile(`^\d+\.\s*`),
		regexp.MustCompile(`^\d+\)\s*`),
		regexp.MustCompile(`(?i)^Q\d+:\s*`),
		regexp.MustCompile(`(?i)^Question\s+\d+:\s*`),
	}
)

// ScreeningQuestions returns the posting's application questions, or an empty slice.
func ScreeningQuestions(doc *goquery.Document, hostname string) []string {
	for _, p := range questionSelectors {
		if !strings.Contains(hostname, p.domain) {
			continue
		}
		for _, sel := range p.selectors {
			container := doc.Find(sel).First()
			if container.Length() == 0 {
				continue
			}
			if qs := questionsIn(container); len(qs) > 0 {
				return qs
			}
		}
	}

	found := []string{}
	doc.Find(keywordContainers).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(s.Text())
		if !containsAny(text, questionKeywords) {
			return true
		}
		if qs := questionsIn(s); len(qs) > 0 {
			found = qs
			return false
		}
		return true
	})
	return found
}

func questionsIn(container *goquery.Selection) []string {
	var out []string

	items := container.Find("li")
	if items.Length() > 0 {
		items.Each(func(_ int, li *goquery.Selection) {
			if q := cleanQuestion(strings.TrimSpace(li.Text())); charCount(q) > minQuestionChars {
				out = append(out, q)
			}
		})
		if len(out) > 0 {
			return out
		}
	}

	container.Find("p, div").Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		if !numberedLine.MatchString(text) {
			return
		}
		if q := cleanQuestion(text); charCount(q) > minQuestionChars {
			out = append(out, q)
		}
	})
	return out
}

func cleanQuestion(text string) string {
	for _, re := range questionPrefixes {
		text = re.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
