package model

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	QuestionTypeChoice QuestionType = "CHOICE"
	QuestionTypeJudge  QuestionType = "JUDGE"
	QuestionTypeText   QuestionType = "TEXT"
)

// IsObjective reports whether answers of this type are graded by comparison.
func (t QuestionType) IsObjective() bool {
	return t == QuestionTypeChoice || t == QuestionTypeJudge
}

// Question is a paper question as seen by the grading pipeline.
type Question struct {
	ID     int64        `json:"id"`
	Type   QuestionType `json:"type"`
	Title  string       `json:"title"`
	Multi  bool         `json:"multi"`
	Answer string       `json:"answer"`
	// Weight is the number of points the question is worth in this paper.
	Weight int `json:"weight"`
}

// Paper is a read-only exam paper with its questions in canonical order.
type Paper struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Duration      int        `json:"duration"`
	Questions     []Question `json:"questions"`
	TotalWeight   int        `json:"totalWeight"`
	QuestionCount int        `json:"questionCount"`
}

// NewPaper fills the aggregate fields from the question list.
func NewPaper(id int64, name, description string, duration int, questions []Question) *Paper {
	p := &Paper{
		ID:          id,
		Name:        name,
		Description: description,
		Duration:    duration,
		Questions:   questions,
	}
	if p.Questions == nil {
		p.Questions = []Question{}
	}
	for _, q := range p.Questions {
		p.TotalWeight += q.Weight
	}
	p.QuestionCount = len(p.Questions)
	return p
}

// QuestionOrder returns question ids in canonical order.
func (p *Paper) QuestionOrder() []int64 {
	ids := make([]int64, len(p.Questions))
	for i, q := range p.Questions {
		ids[i] = q.ID
	}
	return ids
}

// QuestionMap indexes the questions by id.
func (p *Paper) QuestionMap() map[int64]Question {
	m := make(map[int64]Question, len(p.Questions))
	for _, q := range p.Questions {
		m[q.ID] = q
	}
	return m
}
