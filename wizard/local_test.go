package wizard

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hUstbit37/ipms-search-sub001/model"
	"github.com/hUstbit37/ipms-search-sub001/service"
)

func TestDraftKey(t *testing.T) {
	want := map[model.Step]string{
		model.StepGeneralInfo: "transfer_general_info_draft",
		model.StepPartners:    "transfer_partners_draft",
		model.StepTerms:       "transfer_terms_draft",
		model.StepAttachments: "transfer_attachments_draft",
	}
	for step, key := range want {
		if got := DraftKey(step); got != key {
			t.Errorf("DraftKey(%d) = %s, want %s", step, got, key)
		}
	}
}

func TestLocalBackedSaveTwiceKeepsOneSnapshot(t *testing.T) {
	store := service.NewMemoryDraftStore(0)
	local := NewLocalBacked(store, "")
	ctx := context.Background()

	info := validGeneralInfo()
	info.Normalize()
	for i := 0; i < 2; i++ {
		if err := local.Save(ctx, info); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	if store.Count() != 1 {
		t.Errorf("Expected exactly one stored snapshot, got %d", store.Count())
	}
	raw, ok, _ := store.Get(ctx, "transfer_general_info_draft")
	if !ok {
		t.Fatal("Expected snapshot under the general info key")
	}
	if raw != `{"method":"HDCQ","type":"EXCLUSIVE","doc_number":"HD-001","status":"DRAFT"}` {
		t.Errorf("Unexpected snapshot %s", raw)
	}
}

func TestLocalBackedRoundTrip(t *testing.T) {
	store := service.NewMemoryDraftStore(0)
	local := NewLocalBacked(store, "acme:alice:")
	ctx := context.Background()

	drafts := []model.Draft{
		&model.GeneralInfo{
			Method: "HDCQ", Type: "EXCLUSIVE", DocNumber: "HD-001", Status: "DRAFT",
			SignDate: model.NewDate(2026, 2, 14), Notes: "first draft",
		},
		&model.Partners{
			LicensorName: "Acme", LicenseeName: "Globex", IPType: model.IPTypeTrademark,
			IPAssets: []model.IPItem{{ID: "7", Type: model.IPTypeTrademark, Name: "ACME", Classification: "9, 42", StatusLabel: "Registered"}},
		},
		&model.Terms{
			GeographicalArea: "VN", ScopeOfRights: "All", FeeType: model.FeeTypeFixed,
			FeeAmount: feeAmount(1500), Currency: "USD", PaymentPeriod: "yearly", PaymentMethod: "wire",
			DueDate: model.NewDate(2026, 12, 31),
		},
		&model.Attachments{Files: []model.FileHandle{{ID: "f1", Name: "contract.pdf", Size: 1024}}, Notes: "signed"},
	}

	for _, want := range drafts {
		if err := local.Save(ctx, want); err != nil {
			t.Fatalf("Save step %d failed: %v", want.Step(), err)
		}
		got, _ := model.NewDraft(want.Step())
		ok, err := local.Load(ctx, got)
		if err != nil || !ok {
			t.Fatalf("Load step %d: ok=%v err=%v", want.Step(), ok, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Step %d round trip mismatch (-want +got):\n%s", want.Step(), diff)
		}
	}

	if _, ok, _ := store.Get(ctx, "acme:alice:transfer_terms_draft"); !ok {
		t.Error("Expected keys to carry the scope prefix")
	}
}

func TestLocalBackedLoadMissingOrMalformed(t *testing.T) {
	store := service.NewMemoryDraftStore(0)
	local := NewLocalBacked(store, "")
	ctx := context.Background()

	terms, _ := model.NewDraft(model.StepTerms)
	if ok, err := local.Load(ctx, terms); ok || err != nil {
		t.Errorf("Expected no draft, got ok=%v err=%v", ok, err)
	}

	store.Set(ctx, "transfer_terms_draft", `{"geographical_area":"VN","fee_type":`)
	ok, err := local.Load(ctx, terms)
	if ok || err != nil {
		t.Errorf("Expected malformed draft to read as none, got ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(&model.Terms{FeeType: model.FeeTypeNone}, terms); diff != "" {
		t.Errorf("Expected defaults to be kept (-want +got):\n%s", diff)
	}

	store.Set(ctx, "transfer_terms_draft", `{"geographical_area":42}`)
	if ok, _ := local.Load(ctx, terms); ok {
		t.Error("Expected mistyped draft to read as none")
	}
	if terms.(*model.Terms).GeographicalArea != "" {
		t.Error("Expected mistyped draft to leave the form untouched")
	}
}

func TestLocalBackedStorageUnavailable(t *testing.T) {
	local := NewLocalBacked(brokenStore{}, "")
	ctx := context.Background()

	info, _ := model.NewDraft(model.StepGeneralInfo)
	ok, err := local.Load(ctx, info)
	var perr *PersistenceError
	if ok || !errors.As(err, &perr) {
		t.Fatalf("Expected unreadable storage to return PersistenceError, got ok=%v err=%v", ok, err)
	}
	if perr.Message != MsgDraftLoadFailed || !errors.Is(err, errStorageDisabled) {
		t.Errorf("Unexpected load error %v", err)
	}
	if diff := cmp.Diff(&model.GeneralInfo{}, info); diff != "" {
		t.Errorf("Expected defaults to be kept (-want +got):\n%s", diff)
	}

	if _, err := local.Create(ctx); !errors.As(err, &perr) || errors.Is(err, ErrIncompleteDraft) {
		t.Errorf("Expected create to report the storage failure, got %v", err)
	}

	err = local.Save(ctx, validGeneralInfo())
	if !errors.As(err, &perr) {
		t.Fatalf("Expected PersistenceError, got %v", err)
	}
	if perr.Message != MsgDraftSaveFailed {
		t.Errorf("Expected %q, got %q", MsgDraftSaveFailed, perr.Message)
	}
	if !errors.Is(err, errStorageDisabled) {
		t.Error("Expected the storage error to be wrapped")
	}
}

func TestLocalBackedCreate(t *testing.T) {
	store := service.NewMemoryDraftStore(0)
	local := NewLocalBacked(store, "")
	ctx := context.Background()

	if _, err := local.Create(ctx); !errors.Is(err, ErrIncompleteDraft) {
		t.Fatalf("Expected ErrIncompleteDraft, got %v", err)
	}

	info := validGeneralInfo()
	info.Normalize()
	local.Save(ctx, info)
	local.Save(ctx, &model.Terms{
		GeographicalArea: "VN", ScopeOfRights: "All", FeeType: model.FeeTypeNone,
		Currency: "USD",
	})

	contract, err := local.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if contract.GeneralInfo.DocNumber != "HD-001" {
		t.Errorf("Unexpected general info %+v", contract.GeneralInfo)
	}
	if contract.Terms.Currency != "" {
		t.Error("Expected hidden fee fields to be left out of the contract")
	}
	if contract.Partners != nil || contract.Attachments != nil {
		t.Error("Expected unsaved optional steps to be left out")
	}
	if store.Count() != 0 {
		t.Errorf("Expected drafts to be cleared, %d remain", store.Count())
	}
}

func TestLocalBackedCreateRejectsInvalidDraft(t *testing.T) {
	store := service.NewMemoryDraftStore(0)
	local := NewLocalBacked(store, "")
	ctx := context.Background()

	store.Set(ctx, DraftKey(model.StepGeneralInfo), `{"method":"HDCQ"}`)
	store.Set(ctx, DraftKey(model.StepTerms), `{"geographical_area":"VN","scope_of_rights":"All"}`)

	_, err := local.Create(ctx)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if store.Count() != 2 {
		t.Error("Expected drafts to be kept when create fails")
	}
}
