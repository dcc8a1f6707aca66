package fraud

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Voice-Agents/agent/contract"
	"github.com/tanpawarit/Chative-Voice-Agents/agent/record"
)

var fixedNow = func() time.Time { return time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC) }

func seedStore(t *testing.T, cases ...Case) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fraud_cases.json")
	if err := record.Persist(path, cases); err != nil {
		t.Fatalf("seed cases: %v", err)
	}
	return OpenStore(path), path
}

func rohan() Case {
	return Case{
		UserName:           "Rohan Gupta",
		CaseStatus:         StatusPending,
		SecurityIdentifier: "1234",
		SecurityAnswer:     "Bangalore",
		SecurityQuestion:   "What city were you born in?",
		CardEnding:         "4242",
		TransactionAmount:  "₹45,999",
		TransactionName:    "ABC Electronics",
	}
}

func TestRohanGuptaVerificationFailure(t *testing.T) {
	t.Parallel()

	store, path := seedStore(t, rohan())
	call := NewCall(store, fixedNow)

	if _, err := call.LoadCase("Rohan Gupta"); err != nil {
		t.Fatalf("LoadCase() error = %v", err)
	}
	if _, err := call.VerifyIdentifier("0000"); !errors.Is(err, contractx.ErrVerificationFailed) {
		t.Fatalf("expected verification failure, got %v", err)
	}
	if call.State() != StateVerificationFailed {
		t.Fatalf("expected absorbing failure state, got %s", call.State())
	}

	updated, err := call.MarkVerificationFailed()
	if err != nil {
		t.Fatalf("MarkVerificationFailed() error = %v", err)
	}
	if updated.CaseStatus != StatusVerificationFailed || updated.LastUpdated != "2026-05-01T10:30:00Z" {
		t.Fatalf("unexpected resolved case: %+v", updated)
	}

	onDisk, err := record.Read[[]Case](path, nil)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if onDisk[0].CaseStatus != StatusVerificationFailed || onDisk[0].Outcome != OutcomeVerificationFailed {
		t.Fatalf("expected persisted status, got %+v", onDisk[0])
	}

	if _, err := NewCall(store, fixedNow).LoadCase("Rohan Gupta"); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("expected resolved case to be unmatchable, got %v", err)
	}
}

func TestHappyPathMarksSafe(t *testing.T) {
	t.Parallel()

	store, _ := seedStore(t, rohan())
	call := NewCall(store, fixedNow)

	if _, err := call.LoadCase("rohan gupta"); err != nil {
		t.Fatalf("LoadCase() error = %v", err)
	}
	got, err := call.VerifyIdentifier(" 1234 ")
	if err != nil {
		t.Fatalf("VerifyIdentifier() error = %v", err)
	}
	if got.SecurityQuestion == "" {
		t.Fatalf("expected security question after identifier check")
	}
	if _, err := call.VerifyAnswer("  bangalore"); err != nil {
		t.Fatalf("VerifyAnswer() error = %v", err)
	}
	if _, err := call.MarkSafe(); err != nil {
		t.Fatalf("MarkSafe() error = %v", err)
	}
	if call.State() != StateSafe {
		t.Fatalf("expected safe state, got %s", call.State())
	}
	if _, err := call.MarkFraud(); !errors.Is(err, contractx.ErrCaseClosed) {
		t.Fatalf("expected closed case, got %v", err)
	}
}

func TestTerminalToolsRequireCase(t *testing.T) {
	t.Parallel()

	store, _ := seedStore(t, rohan())
	call := NewCall(store, fixedNow)

	if _, err := call.MarkVerificationFailed(); !errors.Is(err, contractx.ErrNoCase) {
		t.Fatalf("expected ErrNoCase, got %v", err)
	}
	if _, err := call.MarkSafe(); !errors.Is(err, contractx.ErrNoCase) {
		t.Fatalf("expected ErrNoCase, got %v", err)
	}
	if _, err := call.VerifyIdentifier("1234"); !errors.Is(err, contractx.ErrNoCase) {
		t.Fatalf("expected ErrNoCase, got %v", err)
	}
}

func TestMarkFraudNeedsFullVerification(t *testing.T) {
	t.Parallel()

	store, _ := seedStore(t, rohan())
	call := NewCall(store, fixedNow)
	if _, err := call.LoadCase("Rohan Gupta"); err != nil {
		t.Fatalf("LoadCase() error = %v", err)
	}
	if _, err := call.MarkFraud(); !errors.Is(err, contractx.ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
	if _, err := call.VerifyAnswer("Bangalore"); !errors.Is(err, contractx.ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
}

func TestVerifiedCallerCannotBeMarkedUnverified(t *testing.T) {
	t.Parallel()

	store, path := seedStore(t, rohan())
	call := NewCall(store, fixedNow)
	if _, err := call.LoadCase("Rohan Gupta"); err != nil {
		t.Fatalf("LoadCase() error = %v", err)
	}
	if _, err := call.VerifyIdentifier("1234"); err != nil {
		t.Fatalf("VerifyIdentifier() error = %v", err)
	}
	if _, err := call.VerifyAnswer("Bangalore"); err != nil {
		t.Fatalf("VerifyAnswer() error = %v", err)
	}

	if _, err := call.MarkVerificationFailed(); !errors.Is(err, contractx.ErrOutOfOrder) {
		t.Fatalf("expected ErrOutOfOrder, got %v", err)
	}
	if call.State() != StateAnswerVerified {
		t.Fatalf("expected state to stay answer_verified, got %s", call.State())
	}
	onDisk, err := record.Read[[]Case](path, nil)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if onDisk[0].CaseStatus != StatusPending {
		t.Fatalf("expected case to stay pending, got %s", onDisk[0].CaseStatus)
	}

	if _, err := call.MarkFraud(); err != nil {
		t.Fatalf("MarkFraud() error = %v", err)
	}
}

func TestFailedStateIsAbsorbing(t *testing.T) {
	t.Parallel()

	store, _ := seedStore(t, rohan())
	call := NewCall(store, fixedNow)
	if _, err := call.LoadCase("Rohan Gupta"); err != nil {
		t.Fatalf("LoadCase() error = %v", err)
	}
	if _, err := call.VerifyIdentifier("1234"); err != nil {
		t.Fatalf("VerifyIdentifier() error = %v", err)
	}
	if _, err := call.VerifyAnswer("Delhi"); !errors.Is(err, contractx.ErrVerificationFailed) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if _, err := call.VerifyAnswer("Bangalore"); !errors.Is(err, contractx.ErrVerificationFailed) {
		t.Fatalf("expected failure to stick, got %v", err)
	}
	if _, err := call.MarkSafe(); !errors.Is(err, contractx.ErrVerificationFailed) {
		t.Fatalf("expected MarkSafe to be refused, got %v", err)
	}
}

func TestSecondLoadRejected(t *testing.T) {
	t.Parallel()

	other := rohan()
	other.UserName = "Meera Nair"
	store, _ := seedStore(t, rohan(), other)

	call := NewCall(store, fixedNow)
	if _, err := call.LoadCase("Rohan Gupta"); err != nil {
		t.Fatalf("LoadCase() error = %v", err)
	}
	if _, err := call.LoadCase("Meera Nair"); !errors.Is(err, contractx.ErrCaseAlreadyLoaded) {
		t.Fatalf("expected ErrCaseAlreadyLoaded, got %v", err)
	}
	if _, err := call.LoadCase("Nobody Here"); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStaleCaseDetected(t *testing.T) {
	t.Parallel()

	store, _ := seedStore(t, rohan())

	first := NewCall(store, fixedNow)
	second := NewCall(store, fixedNow)
	if _, err := first.LoadCase("Rohan Gupta"); err != nil {
		t.Fatalf("first LoadCase() error = %v", err)
	}
	if _, err := second.LoadCase("Rohan Gupta"); err != nil {
		t.Fatalf("second LoadCase() error = %v", err)
	}
	if _, err := second.MarkVerificationFailed(); err != nil {
		t.Fatalf("MarkVerificationFailed() error = %v", err)
	}

	if _, err := first.VerifyIdentifier("1234"); !errors.Is(err, contractx.ErrCaseStale) {
		t.Fatalf("expected ErrCaseStale, got %v", err)
	}
	if first.State() != StateNoCase {
		t.Fatalf("expected stale call to reset, got %s", first.State())
	}
}

func TestFuzzyLookup(t *testing.T) {
	t.Parallel()

	store, _ := seedStore(t, rohan())

	for _, spoken := range []string{"Rohan-Gupta", "rohangupta", "Rohan", "Rohan Guptha"} {
		if _, _, ok := store.FindPending(spoken); !ok {
			t.Fatalf("expected %q to match", spoken)
		}
	}
	if _, _, ok := store.FindPending("Priya"); ok {
		t.Fatalf("expected unrelated name not to match")
	}
}

func TestResolveRollsBackOnWriteFailure(t *testing.T) {
	t.Parallel()

	store, path := seedStore(t, rohan())
	// Replace the file's directory with something unwritable.
	dir := filepath.Dir(path)
	store.path = filepath.Join(dir, "missing-parent", "sub", "cases.json")
	if err := os.WriteFile(filepath.Join(dir, "missing-parent"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}

	_, err := store.Resolve(0, "Rohan Gupta", StatusFraud, OutcomeFraud, fixedNow())
	if !errors.Is(err, contractx.ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	got, _ := store.Get(0)
	if !got.Pending() {
		t.Fatalf("expected rollback to pending, got %s", got.CaseStatus)
	}
}

func TestMissingFileGivesEmptyStore(t *testing.T) {
	t.Parallel()

	store := OpenStore(filepath.Join(t.TempDir(), "nope.json"))
	if _, err := NewCall(store, fixedNow).LoadCase("Rohan Gupta"); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("expected not found on empty store, got %v", err)
	}
}
