package llm

import (
	"fmt"
	"strings"

	"TopicScanner/internal/domain"
)

type contentStyle struct {
	label string
	tone  string
}

var contentStyles = map[domain.ContentType]contentStyle{
	domain.ContentExpert:      {label: "Expert Take", tone: "authoritative analysis with data"},
	domain.ContentEducational: {label: "Educational", tone: "teach a concept through a real example"},
	domain.ContentViral:       {label: "Viral / Trend", tone: "ride the moment, fast take, sharp angle"},
	domain.ContentTools:       {label: "Tool Review", tone: "I tested this so you can decide if it's worth it"},
}

// BuildPrompt renders the user message for a draft request. Unknown content
// types fall back to the expert style.
func BuildPrompt(topic domain.Topic) string {
	style, ok := contentStyles[topic.ContentType]
	if !ok {
		style = contentStyles[domain.ContentExpert]
	}

	facts := "NEEDS VERIFICATION: fact-check the key claims"
	switch {
	case topic.FactChecked:
		facts = "VERIFIED: " + topic.FactNotes
	case strings.TrimSpace(topic.FactNotes) != "":
		facts = "NEEDS VERIFICATION: " + topic.FactNotes
	}

	var b strings.Builder
	b.WriteString("Write a LinkedIn post about this topic.\n\n")
	fmt.Fprintf(&b, "TOPIC: %s\n", topic.Title)
	fmt.Fprintf(&b, "CONTENT TYPE: %s - %s\n", style.label, style.tone)
	fmt.Fprintf(&b, "NICHES: %s\n", topic.Niches)
	fmt.Fprintf(&b, "HOOK SUGGESTION: %s\n", topic.Hook)
	fmt.Fprintf(&b, "POST DIRECTION: %s\n", topic.PostIdea)
	fmt.Fprintf(&b, "SOURCE URL: %s\n", topic.SourceURL)
	fmt.Fprintf(&b, "SOURCE: %s\n", topic.SourceTitle)
	fmt.Fprintf(&b, "FACT STATUS: %s\n\n", facts)
	b.WriteString("CRITICAL:\n")
	b.WriteString("- Use web search to fact-check specific numbers before including them; drop claims you cannot verify\n")
	b.WriteString("- Frame as discoveries (\"I found\", \"interesting that\"), never lectures\n")
	b.WriteString("- No em dashes. No \"What do you think?\" at the end.\n")
	b.WriteString("- Sources line at bottom\n")
	b.WriteString("- English only")
	return b.String()
}
