package domain

// Rubric tags a post with its content category.
type Rubric string

const (
	RubricAINews       Rubric = "ai_news"
	RubricToolReview   Rubric = "tool_review"
	RubricCaseStudy    Rubric = "case_study"
	RubricPrompt       Rubric = "business_prompt"
	RubricExplainer    Rubric = "ai_explainer"
	RubricWeeklyDigest Rubric = "weekly_digest"
)

// DefaultRubric is used when a generator does not pick one.
const DefaultRubric = RubricAINews

var rubricPrompts = map[Rubric]string{
	RubricAINews:       "Write a short news post: lead with the most surprising fact, explain in two sentences why it matters, finish with an open question to the reader.",
	RubricToolReview:   "Write a tool-of-the-day post: what the tool does, the concrete pain it removes, one measurable result. No feature lists.",
	RubricCaseStudy:    "Write a case-study post: before/after numbers first, then how it was done in two sentences.",
	RubricPrompt:       "Write a ready-to-copy prompt post: the task, the prompt itself in a code block, what the reader gets.",
	RubricExplainer:    "Explain the concept with one everyday analogy, then one business application. Keep it under six sentences.",
	RubricWeeklyDigest: "Write a digest of the week's items as a tight bullet list with one-line takeaways.",
}

var rubricHashtags = map[Rubric]string{
	RubricAINews:       "#ai #news",
	RubricToolReview:   "#ai #tools",
	RubricCaseStudy:    "#ai #automation",
	RubricPrompt:       "#ai #prompts",
	RubricExplainer:    "#ai #basics",
	RubricWeeklyDigest: "#ai #digest",
}

// Valid reports whether r names a known rubric.
func (r Rubric) Valid() bool {
	_, ok := rubricPrompts[r]
	return ok
}

// Prompt returns the generation instruction for the rubric.
func (r Rubric) Prompt() string {
	if p, ok := rubricPrompts[r]; ok {
		return p
	}
	return rubricPrompts[DefaultRubric]
}

// Hashtags returns the hashtag line appended to posts of this rubric.
func (r Rubric) Hashtags() string {
	if h, ok := rubricHashtags[r]; ok {
		return h
	}
	return rubricHashtags[DefaultRubric]
}
