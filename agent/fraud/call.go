package fraud

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
)

type State string

const (
	StateNoCase             State = "no_case"
	StateCaseLoaded         State = "case_loaded"
	StateIdentifierVerified State = "identifier_verified"
	StateAnswerVerified     State = "answer_verified"
	StateSafe               State = "safe"
	StateFraud              State = "fraud"
	StateVerificationFailed State = "verification_failed"
)

const (
	OutcomeSafe               = "Customer confirmed the transaction as legitimate."
	OutcomeFraud              = "Customer denied the transaction. Card blocked and dispute raised."
	OutcomeVerificationFailed = "Customer could not be verified. No changes made to the card."
)

// Call is the verification flow of one phone call. It holds the case by index
// and owner name and re-checks both against the store before every use.
type Call struct {
	store *Store
	now   func() time.Time

	state    State
	index    int
	userName string
	// closed is set once a terminal status has been written for this call.
	closed bool
}

func NewCall(store *Store, now func() time.Time) *Call {
	if now == nil {
		now = time.Now
	}
	return &Call{store: store, now: now, state: StateNoCase, index: -1}
}

func (c *Call) State() State {
	return c.state
}

// Case returns the held case as the store sees it now.
func (c *Call) Case() (Case, bool) {
	if c.state == StateNoCase {
		return Case{}, false
	}
	return c.store.Get(c.index)
}

// LoadCase binds the call to the pending case matching userName. Only one case
// is handled per call.
func (c *Call) LoadCase(userName string) (Case, error) {
	idx, found, ok := c.store.FindPending(userName)
	if !ok {
		return Case{}, fmt.Errorf("%w: no pending alert for %q", contractx.ErrNotFound, userName)
	}
	if c.state != StateNoCase {
		return Case{}, fmt.Errorf("%w: holding case for %s", contractx.ErrCaseAlreadyLoaded, c.userName)
	}

	c.index = idx
	c.userName = found.UserName
	c.state = StateCaseLoaded
	return found, nil
}

// VerifyIdentifier compares the trimmed identifier exactly. A mismatch fails
// the call's verification for good.
func (c *Call) VerifyIdentifier(identifier string) (Case, error) {
	current, err := c.require(StateCaseLoaded)
	if err != nil {
		return Case{}, err
	}
	if strings.TrimSpace(identifier) != strings.TrimSpace(current.SecurityIdentifier) {
		c.state = StateVerificationFailed
		return Case{}, fmt.Errorf("%w: security identifier", contractx.ErrVerificationFailed)
	}
	c.state = StateIdentifierVerified
	return current, nil
}

// VerifyAnswer compares the trimmed answer ignoring case.
func (c *Call) VerifyAnswer(answer string) (Case, error) {
	current, err := c.require(StateIdentifierVerified)
	if err != nil {
		return Case{}, err
	}
	if !strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(current.SecurityAnswer)) {
		c.state = StateVerificationFailed
		return Case{}, fmt.Errorf("%w: security answer", contractx.ErrVerificationFailed)
	}
	c.state = StateAnswerVerified
	return current, nil
}

func (c *Call) MarkSafe() (Case, error) {
	if _, err := c.require(StateAnswerVerified); err != nil {
		return Case{}, err
	}
	return c.resolve(StatusSafe, OutcomeSafe, StateSafe)
}

func (c *Call) MarkFraud() (Case, error) {
	if _, err := c.require(StateAnswerVerified); err != nil {
		return Case{}, err
	}
	return c.resolve(StatusFraud, OutcomeFraud, StateFraud)
}

// MarkVerificationFailed closes the held case as unverified. It is allowed at
// any point after a case is loaded and before both checks have passed.
func (c *Call) MarkVerificationFailed() (Case, error) {
	if err := c.open(); err != nil {
		return Case{}, err
	}
	if c.state == StateAnswerVerified {
		return Case{}, fmt.Errorf("%w: caller already verified, mark the case safe or fraud", contractx.ErrOutOfOrder)
	}
	if _, err := c.current(); err != nil {
		return Case{}, err
	}
	return c.resolve(StatusVerificationFailed, OutcomeVerificationFailed, StateVerificationFailed)
}

func (c *Call) resolve(status Status, outcome string, next State) (Case, error) {
	updated, err := c.store.Resolve(c.index, c.userName, status, outcome, c.now())
	if err != nil {
		return Case{}, c.fail(err)
	}
	c.state = next
	c.closed = true
	return updated, nil
}

func (c *Call) open() error {
	if c.closed {
		return fmt.Errorf("%w: %s", contractx.ErrCaseClosed, c.state)
	}
	if c.state == StateNoCase {
		return contractx.ErrNoCase
	}
	return nil
}

// require checks the call sits exactly in want and the held case is still
// current.
func (c *Call) require(want State) (Case, error) {
	if err := c.open(); err != nil {
		return Case{}, err
	}
	if c.state == StateVerificationFailed {
		return Case{}, fmt.Errorf("%w: verification already failed", contractx.ErrVerificationFailed)
	}
	if c.state != want {
		return Case{}, fmt.Errorf("%w: in %s, need %s", contractx.ErrOutOfOrder, c.state, want)
	}
	return c.current()
}

func (c *Call) current() (Case, error) {
	current, ok := c.store.Get(c.index)
	if !ok || !current.Pending() || current.UserName != c.userName {
		return Case{}, c.fail(fmt.Errorf("%w: case for %s", contractx.ErrCaseStale, c.userName))
	}
	return current, nil
}

// fail resets the call when the held case went stale.
func (c *Call) fail(err error) error {
	if errors.Is(err, contractx.ErrCaseStale) {
		c.state = StateNoCase
		c.index = -1
		c.userName = ""
	}
	return err
}
