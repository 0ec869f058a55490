package plan

import (
	"fmt"
	"net/url"
	"strings"
)

// fallbackOutline is the fixed curriculum shape used when the generative
// backend is unusable. Only the goal title/description parameterize it;
// building a fallback plan makes no network calls.
var fallbackOutline = []struct {
	title       string
	description string
	minutes     int
}{
	{"Fundamentals of %s", "Get oriented: core concepts, terminology, and what the learning path ahead looks like.", 60},
	{"Core Concepts in %s", "Work through the essential ideas in depth and take notes on anything unclear.", 90},
	{"Hands-on Practice: %s", "Apply what you've learned with small, self-contained exercises.", 90},
	{"Going Deeper into %s", "Explore intermediate topics and common real-world patterns.", 120},
	{"Build a Project with %s", "Consolidate everything by building and finishing a small project of your own.", 180},
}

// Fallback synthesizes a minimal local study plan for a goal. Each step
// carries search-engine query links rather than claims of curated content.
func Fallback(goalTitle, goalDescription string) *Plan {
	topic := strings.TrimSpace(goalTitle)
	summary := fmt.Sprintf("A general-purpose study plan for %q. Generated locally; follow the search links in each step to find up-to-date material.", topic)
	if strings.TrimSpace(goalDescription) != "" {
		summary += " Goal: " + strings.TrimSpace(goalDescription)
	}

	p := &Plan{
		Title:   "Learn " + topic,
		Summary: summary,
		Steps:   make([]Step, 0, len(fallbackOutline)),
	}
	for i, outline := range fallbackOutline {
		title := fmt.Sprintf(outline.title, topic)
		p.Steps = append(p.Steps, Step{
			ID:              fmt.Sprintf("step-%d", i+1),
			Title:           title,
			Description:     outline.description,
			DurationMinutes: outline.minutes,
			Resources:       searchResources(title),
		})
	}
	return p
}

// SearchResource builds a single generic search link for a topic. The
// resource filter uses it to keep the one-resource-per-step invariant when
// every link in a step turns out to be dead.
func SearchResource(topic string) Resource {
	return Resource{
		Kind:   KindArticle,
		Title:  "Search: " + topic,
		URL:    "https://www.google.com/search?q=" + url.QueryEscape(topic),
		Source: "Google Search",
	}
}

func searchResources(topic string) []Resource {
	q := url.QueryEscape(topic)
	return []Resource{
		SearchResource(topic),
		{
			Kind:   KindVideo,
			Title:  "Video tutorials: " + topic,
			URL:    "https://www.youtube.com/results?search_query=" + q,
			Source: "YouTube Search",
		},
		{
			Kind:   KindExercise,
			Title:  "Practice exercises: " + topic,
			URL:    "https://duckduckgo.com/?q=" + url.QueryEscape(topic+" exercises"),
			Source: "DuckDuckGo Search",
		},
	}
}
