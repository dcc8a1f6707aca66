package lead

import (
	"fmt"
	"strings"

	"github.com/tanpawarit/Chative-Voice-Agents/agent/record"
)

const companySchema = `{
  "type": "object",
  "required": ["company", "faq"],
  "properties": {
    "company": {
      "type": "object",
      "required": ["name", "description"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "description": {"type": "string"}
      }
    },
    "pricing": {"type": "object", "additionalProperties": {"type": "string"}},
    "faq": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "answer"],
        "properties": {
          "question": {"type": "string"},
          "answer": {"type": "string"}
        }
      }
    }
  }
}`

type Profile struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Pricing struct {
	GateCSEComplete string `json:"gate_cse_complete,omitempty"`
	GateDAComplete  string `json:"gate_da_complete,omitempty"`
	GateCombo       string `json:"gate_combo,omitempty"`
	TestSeries      string `json:"test_series,omitempty"`
	FreeCourses     string `json:"free_courses,omitempty"`
}

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Company struct {
	Profile Profile `json:"company"`
	Pricing Pricing `json:"pricing"`
	FAQ     []FAQ   `json:"faq"`
}

// LoadCompany reads the FAQ document. A missing or invalid file yields an
// empty company: every FAQ search then falls back to the (empty) description.
func LoadCompany(path string) *Company {
	schema, err := record.CompileSchema("company_faq.schema.json", companySchema)
	if err != nil {
		panic(err)
	}
	c := record.Load[Company](path, schema)
	return &c
}

var pricingWords = []string{"price", "cost", "fee", "fees", "charge", "discount", "free", "paid", "subscription"}

// SearchFAQ answers a caller question from the FAQ document only. Pricing
// questions short-circuit to the pricing sheet; everything else picks the
// entry sharing the most words with the question, falling back to the company
// description.
func (c *Company) SearchFAQ(question string) string {
	q := strings.ToLower(strings.TrimSpace(question))

	for _, w := range pricingWords {
		if strings.Contains(q, w) {
			if s := c.pricingSentence(); s != "" {
				return s
			}
			break
		}
	}

	qWords := wordSet(q)
	best, bestScore := -1, 0
	for i, f := range c.FAQ {
		score := 0
		for w := range wordSet(strings.ToLower(f.Question + " " + f.Answer)) {
			if _, ok := qWords[w]; ok {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return c.FAQ[best].Answer
	}
	return c.Profile.Description
}

func (c *Company) pricingSentence() string {
	p := c.Pricing
	if p == (Pricing{}) {
		return ""
	}

	var b strings.Builder
	b.WriteString("For pricing basics: ")
	if p.GateCSEComplete != "" {
		fmt.Fprintf(&b, "GATE CSE Complete Course is around %s. ", p.GateCSEComplete)
	}
	if p.GateDAComplete != "" {
		fmt.Fprintf(&b, "GATE DA Complete Course is around %s. ", p.GateDAComplete)
	}
	if p.GateCombo != "" {
		fmt.Fprintf(&b, "The GATE CSE + DA Combo is around %s. ", p.GateCombo)
	}
	if p.TestSeries != "" {
		fmt.Fprintf(&b, "Test series and quizzes are %s. ", p.TestSeries)
	}
	if p.FreeCourses != "" {
		fmt.Fprintf(&b, "We also offer %s ", p.FreeCourses)
	}
	b.WriteString("(exact prices may change, so please check the website for the latest offers).")
	return b.String()
}

func wordSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
