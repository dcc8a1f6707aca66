// Package fraud holds the bank fraud-alert call: the shared case file and the
// per-call verification state machine.
package fraud

import (
	"fmt"
	"sync"
	"time"

	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/match"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/record"
)

type Status string

const (
	StatusPending            Status = "pending_review"
	StatusSafe               Status = "confirmed_safe"
	StatusFraud              Status = "confirmed_fraud"
	StatusVerificationFailed Status = "verification_failed"
)

type Case struct {
	UserName            string `json:"userName"`
	CaseStatus          Status `json:"caseStatus"`
	SecurityIdentifier  string `json:"securityIdentifier"`
	SecurityAnswer      string `json:"securityAnswer"`
	SecurityQuestion    string `json:"securityQuestion"`
	CardEnding          string `json:"cardEnding"`
	TransactionAmount   string `json:"transactionAmount"`
	TransactionName     string `json:"transactionName"`
	TransactionCategory string `json:"transactionCategory"`
	TransactionLocation string `json:"transactionLocation"`
	TransactionTime     string `json:"transactionTime"`
	TransactionSource   string `json:"transactionSource"`
	Outcome             string `json:"outcome"`
	LastUpdated         string `json:"lastUpdated"`
}

func (c Case) Pending() bool {
	return c.CaseStatus == StatusPending
}

const casesSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["userName", "caseStatus", "securityIdentifier"],
    "properties": {
      "userName": {"type": "string", "minLength": 1},
      "caseStatus": {"enum": ["pending_review", "confirmed_safe", "confirmed_fraud", "verification_failed"]},
      "securityIdentifier": {"type": "string"},
      "securityAnswer": {"type": "string"},
      "securityQuestion": {"type": "string"},
      "cardEnding": {"type": "string"},
      "transactionAmount": {"type": "string"},
      "transactionName": {"type": "string"},
      "transactionCategory": {"type": "string"},
      "transactionLocation": {"type": "string"},
      "transactionTime": {"type": "string"},
      "transactionSource": {"type": "string"},
      "outcome": {"type": ["string", "null"]},
      "lastUpdated": {"type": ["string", "null"]}
    }
  }
}`

// Store is the fraud case file, loaded once and rewritten wholesale on every
// resolution. One Store is shared by every call of the process.
type Store struct {
	mu    sync.Mutex
	path  string
	cases []Case
}

// OpenStore loads path. A missing or invalid file gives an empty store, so
// every lookup answers "no alert found".
func OpenStore(path string) *Store {
	schema := record.MustCompileSchema("fraud_cases.schema.json", casesSchema)
	return &Store{
		path:  path,
		cases: record.Load[[]Case](path, schema),
	}
}

// FindPending matches name against pending cases only, using the fuzzy
// matcher. The returned index addresses the case in file order.
func (s *Store) FindPending(name string) (int, Case, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]int, 0, len(s.cases))
	for i, c := range s.cases {
		if c.Pending() {
			pending = append(pending, i)
		}
	}

	hit, ok := match.Find(name, pending, func(i int) string { return s.cases[i].UserName }, match.Fuzzy)
	if !ok {
		return -1, Case{}, false
	}
	return hit.Record, s.cases[hit.Record], true
}

// Get returns the case at index as it is now.
func (s *Store) Get(index int) (Case, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.cases) {
		return Case{}, false
	}
	return s.cases[index], true
}

// Resolve moves a pending case to status and rewrites the file. The case must
// still be pending and still belong to userName; otherwise ErrCaseStale. On a
// failed write the in-memory change is rolled back.
func (s *Store) Resolve(index int, userName string, status Status, outcome string, at time.Time) (Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.cases) {
		return Case{}, fmt.Errorf("%w: case %d no longer exists", contractx.ErrCaseStale, index)
	}
	prev := s.cases[index]
	if !prev.Pending() || prev.UserName != userName {
		return Case{}, fmt.Errorf("%w: case for %s is %s", contractx.ErrCaseStale, userName, prev.CaseStatus)
	}

	next := prev
	next.CaseStatus = status
	next.Outcome = outcome
	next.LastUpdated = at.Format(time.RFC3339)
	s.cases[index] = next

	if err := record.Persist(s.path, s.cases); err != nil {
		s.cases[index] = prev
		return Case{}, fmt.Errorf("%w: %v", contractx.ErrPersist, err)
	}
	return next, nil
}
