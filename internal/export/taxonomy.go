// Package export builds the category taxonomy over validated questions and
// serialises the question bank to its output formats.
package export

import (
	"fmt"
	"sort"
	"strings"

	"github.com/examforge/question-engine/internal/domain"
)

// Taxonomy is the full category view over a question set. Categories
// reference questions by identifier; a question may appear under several
// dimensions at once.
type Taxonomy struct {
	Structure  *domain.DocumentStructure
	Categories []*domain.QuestionCategory
	Questions  []domain.ExtractedQuestion
}

// TotalQuestions returns the number of questions in the taxonomy.
func (t *Taxonomy) TotalQuestions() int { return len(t.Questions) }

// BuildTaxonomy groups questions along every taxonomy dimension: the
// hierarchical exam type > paper > section tree, plus flat year, subject and
// difficulty groupings. Membership order within a category follows question
// order, so the same input always yields the same taxonomy.
func BuildTaxonomy(structure *domain.DocumentStructure, questions []domain.ExtractedQuestion) *Taxonomy {
	t := &Taxonomy{
		Structure: structure,
		Questions: questions,
	}

	t.Categories = append(t.Categories, buildHierarchy(structure, questions))

	if structure != nil && structure.Year > 0 {
		year := &domain.QuestionCategory{
			ID:   fmt.Sprintf("year-%d", structure.Year),
			Name: fmt.Sprintf("%d", structure.Year),
			Type: domain.CategoryYear,
		}
		for _, q := range questions {
			year.AddQuestion(q.ID.String())
		}
		t.Categories = append(t.Categories, year)
	}

	t.Categories = append(t.Categories, groupBy(questions, domain.CategorySubject, func(q domain.ExtractedQuestion) string {
		if q.Subject == "" {
			return domain.DefaultSubject
		}
		return q.Subject
	})...)

	t.Categories = append(t.Categories, groupBy(questions, domain.CategoryDifficulty, func(q domain.ExtractedQuestion) string {
		return string(q.Difficulty)
	})...)

	return t
}

// buildHierarchy assembles the exam type > paper > section tree and assigns
// each question to its paper and section by page number.
func buildHierarchy(structure *domain.DocumentStructure, questions []domain.ExtractedQuestion) *domain.QuestionCategory {
	examType := "exam"
	examName := "Exam"
	if structure != nil {
		if structure.ExamType != "" {
			examType = structure.ExamType
		}
		if structure.ExamName != "" {
			examName = structure.ExamName
		}
	}

	root := &domain.QuestionCategory{
		ID:   slug(examType),
		Name: examName,
		Type: domain.CategoryExamType,
	}

	if structure == nil {
		for _, q := range questions {
			root.AddQuestion(q.ID.String())
		}
		return root
	}

	index := domain.BuildPageIndex(structure)

	papers := make(map[string]*domain.QuestionCategory)
	sections := make(map[string]*domain.QuestionCategory)

	for _, p := range structure.Papers {
		pc := &domain.QuestionCategory{
			ID:   root.ID + "-" + slug(p.ID),
			Name: p.Name,
			Type: domain.CategoryPaperType,
		}
		papers[p.ID] = pc
		root.Subcategories = append(root.Subcategories, pc)

		for _, s := range p.Sections {
			sc := &domain.QuestionCategory{
				ID:   pc.ID + "-" + slug(s.Name),
				Name: s.Name,
				Type: domain.CategorySection,
			}
			sections[p.ID+"/"+s.Name] = sc
			pc.Subcategories = append(pc.Subcategories, sc)
		}
	}

	for _, q := range questions {
		id := q.ID.String()
		root.AddQuestion(id)

		loc, ok := index.Lookup(q.Metadata.PageNumber)
		if !ok {
			continue
		}
		if pc, ok := papers[loc.PaperID]; ok {
			pc.AddQuestion(id)
		}
		if loc.SectionName != "" {
			if sc, ok := sections[loc.PaperID+"/"+loc.SectionName]; ok {
				sc.AddQuestion(id)
			}
		}
	}

	return root
}

// groupBy builds one flat category per distinct key, ordered by first
// appearance of the key in the question list.
func groupBy(questions []domain.ExtractedQuestion, ctype domain.CategoryType, key func(domain.ExtractedQuestion) string) []*domain.QuestionCategory {
	var order []string
	byKey := make(map[string]*domain.QuestionCategory)

	for _, q := range questions {
		k := key(q)
		if k == "" {
			continue
		}
		cat, ok := byKey[k]
		if !ok {
			cat = &domain.QuestionCategory{
				ID:   string(ctype) + "-" + slug(k),
				Name: k,
				Type: ctype,
			}
			byKey[k] = cat
			order = append(order, k)
		}
		cat.AddQuestion(q.ID.String())
	}

	cats := make([]*domain.QuestionCategory, 0, len(order))
	for _, k := range order {
		cats = append(cats, byKey[k])
	}
	return cats
}

// flatten returns every category in the taxonomy, depth-first.
func (t *Taxonomy) flatten() []*domain.QuestionCategory {
	var out []*domain.QuestionCategory
	var walk func(c *domain.QuestionCategory)
	walk = func(c *domain.QuestionCategory) {
		out = append(out, c)
		for _, sub := range c.Subcategories {
			walk(sub)
		}
	}
	for _, c := range t.Categories {
		walk(c)
	}
	return out
}

// slug normalises a name into a stable identifier fragment.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
			}
			prev = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// sortQuestions orders questions by page then number for stable output.
func sortQuestions(questions []domain.ExtractedQuestion) []domain.ExtractedQuestion {
	sorted := make([]domain.ExtractedQuestion, len(questions))
	copy(sorted, questions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Metadata.PageNumber != sorted[j].Metadata.PageNumber {
			return sorted[i].Metadata.PageNumber < sorted[j].Metadata.PageNumber
		}
		return sorted[i].Number < sorted[j].Number
	})
	return sorted
}
