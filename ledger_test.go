package bankero

import (
	"bytes"
	"testing"
)

func TestMemoryJournalIdempotentAppend(t *testing.T) {
	j := NewMemoryJournal()
	e := deposit(t, 0, day(1), "assets:bank", "100", "USD")

	first, err := j.Append(e)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if first.AlreadyPresent {
		t.Error("first append reported AlreadyPresent")
	}

	second, err := j.Append(e)
	if err != nil {
		t.Fatalf("re-Append: %v", err)
	}
	if !second.AlreadyPresent || second.Seq != first.Seq {
		t.Errorf("re-append = %+v, want AlreadyPresent at seq %d", second, first.Seq)
	}

	events, _ := j.Events()
	if len(events) != 1 {
		t.Errorf("journal holds %d events, want 1", len(events))
	}
}

func TestLedgerSubmitStampsIdentity(t *testing.T) {
	l := testLedger(t)
	l.Project = "trips"

	e, res, err := l.Submit(ActionIntent{
		Action: ActionDeposit, Amount: dec("100"), Commodity: "USD",
		From: "external", To: "assets:bank",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if e.Workspace != "personal" || e.Project != "trips" {
		t.Errorf("identity = %q/%q", e.Workspace, e.Project)
	}
	if e.Seq != res.Seq || res.Seq == 0 {
		t.Errorf("seq = %d / %d", e.Seq, res.Seq)
	}
}

func TestExportImportMergeConverges(t *testing.T) {
	// Two devices record disjoint events, then exchange exports in
	// opposite orders. Both must end with identical ledgers.
	phone := testLedger(t)
	laptop := testLedger(t)

	mustSubmit(t, phone, ActionIntent{
		Action: ActionDeposit, Amount: dec("1500"), Commodity: "USD",
		From: "external:employer", To: "assets:bank", EffectiveAt: day(1),
	})
	mustSubmit(t, laptop, ActionIntent{
		Action: ActionBuy, Amount: dec("50"), Commodity: "USD",
		From: "assets:bank", To: "expenses:food", Category: "expenses:food",
		EffectiveAt: day(5),
	})

	var fromPhone, fromLaptop bytes.Buffer
	if err := phone.Export(&fromPhone); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if err := laptop.Export(&fromLaptop); err != nil {
		t.Fatalf("Export: %v", err)
	}

	if _, _, err := phone.Import(bytes.NewReader(fromLaptop.Bytes())); err != nil {
		t.Fatalf("Import on phone: %v", err)
	}
	added, skipped, err := laptop.Import(bytes.NewReader(fromPhone.Bytes()))
	if err != nil {
		t.Fatalf("Import on laptop: %v", err)
	}
	if added != 1 || skipped != 0 {
		t.Errorf("laptop import added=%d skipped=%d, want 1, 0", added, skipped)
	}

	phoneState, _ := phone.State()
	laptopState, _ := laptop.State()
	for _, key := range []struct{ account, commodity string }{
		{"assets:bank", "USD"},
		{"expenses:food", "USD"},
		{"external:employer", "USD"},
	} {
		a := phoneState.Balance(key.account, key.commodity)
		b := laptopState.Balance(key.account, key.commodity)
		if !a.Equal(b) {
			t.Errorf("%s: phone=%s laptop=%s", key.account, a, b)
		}
	}
	if got := phoneState.Balance("assets:bank", "USD"); !got.Equal(dec("1450")) {
		t.Errorf("merged balance = %s, want 1450", got)
	}

	// Re-importing the same stream is a no-op.
	added, skipped, err = laptop.Import(bytes.NewReader(fromPhone.Bytes()))
	if err != nil {
		t.Fatalf("re-Import: %v", err)
	}
	if added != 0 || skipped != 1 {
		t.Errorf("re-import added=%d skipped=%d, want 0, 1", added, skipped)
	}

	// Canonical exports of the merged journals are byte-identical.
	var mergedPhone, mergedLaptop bytes.Buffer
	if err := phone.Export(&mergedPhone); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if err := laptop.Export(&mergedLaptop); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.Equal(mergedPhone.Bytes(), mergedLaptop.Bytes()) {
		t.Errorf("merged exports differ:\n%s\n---\n%s", mergedPhone.String(), mergedLaptop.String())
	}
}
