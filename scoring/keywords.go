package scoring

import "strings"

// Category is a technology group used for skill matching.
type Category string

const (
	CategoryJava       Category = "java"
	CategoryPython     Category = "python"
	CategoryJavaScript Category = "javascript"
	CategoryWeb        Category = "web"
	CategoryDatabase   Category = "database"
	CategoryCloud      Category = "cloud"
	CategoryAI         Category = "ai"
)

// Categories lists every category in evaluation order.
var Categories = []Category{
	CategoryJava,
	CategoryPython,
	CategoryJavaScript,
	CategoryWeb,
	CategoryDatabase,
	CategoryCloud,
	CategoryAI,
}

// skillKeywords maps each category to the lowercase keywords that signal it.
// Matching is by substring, so short keywords like "js" also hit "nodejs".
var skillKeywords = map[Category][]string{
	CategoryJava:       {"java", "spring", "springboot", "maven", "gradle"},
	CategoryPython:     {"python", "django", "flask", "fastapi", "pandas", "numpy"},
	CategoryJavaScript: {"javascript", "js", "node", "nodejs", "react", "vue", "angular"},
	CategoryWeb:        {"html", "css", "frontend", "backend", "fullstack", "web开发"},
	CategoryDatabase:   {"mysql", "postgresql", "mongodb", "redis", "sql", "数据库"},
	CategoryCloud:      {"aws", "azure", "kubernetes", "docker", "云计算", "微服务"},
	CategoryAI:         {"机器学习", "深度学习", "tensorflow", "pytorch", "nlp", "cv", "人工智能"},
}

// Keywords returns the keywords of a category.
func Keywords(c Category) []string {
	return skillKeywords[c]
}

// Covers reports whether lowercase text mentions any keyword of the category.
func (c Category) Covers(text string) bool {
	for _, kw := range skillKeywords[c] {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// CategoriesIn returns the categories mentioned in text, in evaluation order.
func CategoriesIn(text string) []Category {
	text = strings.ToLower(text)
	found := make([]Category, 0, len(Categories))
	for _, c := range Categories {
		if c.Covers(text) {
			found = append(found, c)
		}
	}
	return found
}

// categoryFor finds the category a required skill belongs to, either by
// category name or by exact keyword.
func categoryFor(skill string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == skill {
			return c, true
		}
		for _, kw := range skillKeywords[c] {
			if kw == skill {
				return c, true
			}
		}
	}
	return "", false
}

// HasSkill reports whether candidate skills satisfy one required skill.
// A skill that names a category (or one of its keywords) is satisfied by any
// keyword of that category; anything else needs a verbatim substring hit.
func HasSkill(candidateSkills, requiredSkill string) bool {
	skills := strings.ToLower(candidateSkills)
	required := strings.ToLower(strings.TrimSpace(requiredSkill))
	if required == "" {
		return true
	}
	if c, ok := categoryFor(required); ok {
		return c.Covers(skills)
	}
	return strings.Contains(skills, required)
}
