package model

import (
	"strings"
)

// StatusDraft is the contract status used until the record is finalised.
const StatusDraft = "DRAFT"

// Fee types on the terms step
const (
	FeeTypeNone    = "NO_FEE"
	FeeTypeFixed   = "FIXED"
	FeeTypeRoyalty = "ROYALTY"
)

// GeneralInfo is step 1 of the contract wizard.
type GeneralInfo struct {
	Method         string `json:"method" validate:"required"`
	Type           string `json:"type" validate:"required"`
	DocNumber      string `json:"doc_number" validate:"required"`
	Status         string `json:"status" validate:"required"`
	SignDate       *Date  `json:"sign_date,omitempty"`
	EffectiveDate  *Date  `json:"effective_date,omitempty"`
	ExpirationDate *Date  `json:"expiration_date,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

func (g *GeneralInfo) Step() Step { return StepGeneralInfo }

func (g *GeneralInfo) Normalize() {
	g.Method = strings.TrimSpace(g.Method)
	g.Type = strings.TrimSpace(g.Type)
	g.DocNumber = strings.TrimSpace(g.DocNumber)
	g.Status = strings.TrimSpace(g.Status)
	if g.Status == "" {
		g.Status = StatusDraft
	}
	g.SignDate = presentDate(g.SignDate)
	g.EffectiveDate = presentDate(g.EffectiveDate)
	g.ExpirationDate = presentDate(g.ExpirationDate)
	g.Notes = SanitizeText(g.Notes)
}

func (g *GeneralInfo) Payload() any {
	out := *g
	return &out
}

// Partners is step 2: the contracting parties and the IP assets covered.
type Partners struct {
	LicensorName    string   `json:"licensor_name" validate:"required"`
	LicensorAddress string   `json:"licensor_address,omitempty"`
	LicenseeName    string   `json:"licensee_name" validate:"required"`
	LicenseeAddress string   `json:"licensee_address,omitempty"`
	IPType          IPType   `json:"ip_type" validate:"required,oneof=trademark industrial_design"`
	IPAssets        []IPItem `json:"ip_assets"`
}

func (p *Partners) Step() Step { return StepPartners }

func (p *Partners) Normalize() {
	p.LicensorName = strings.TrimSpace(p.LicensorName)
	p.LicensorAddress = strings.TrimSpace(p.LicensorAddress)
	p.LicenseeName = strings.TrimSpace(p.LicenseeName)
	p.LicenseeAddress = strings.TrimSpace(p.LicenseeAddress)
	if p.IPType == "" {
		p.IPType = IPTypeTrademark
	}
	if p.IPAssets == nil {
		p.IPAssets = []IPItem{}
	}
}

func (p *Partners) Payload() any {
	out := *p
	return &out
}

// Terms is step 3. Currency, payment and due date fields apply to every fee
// type except FeeTypeNone; FeeAmount applies to FeeTypeFixed only.
type Terms struct {
	GeographicalArea string   `json:"geographical_area" validate:"required"`
	ScopeOfRights    string   `json:"scope_of_rights" validate:"required"`
	FeeType          string   `json:"fee_type" validate:"required,oneof=NO_FEE FIXED ROYALTY"`
	FeeAmount        *float64 `json:"fee_amount,omitempty" validate:"omitempty,gte=0"`
	Currency         string   `json:"currency,omitempty" validate:"required_unless=FeeType NO_FEE"`
	PaymentPeriod    string   `json:"payment_period,omitempty" validate:"required_unless=FeeType NO_FEE"`
	PaymentMethod    string   `json:"payment_method,omitempty" validate:"required_unless=FeeType NO_FEE"`
	DueDate          *Date    `json:"due_date,omitempty" validate:"required_unless=FeeType NO_FEE"`
}

func (t *Terms) Step() Step { return StepTerms }

func (t *Terms) Normalize() {
	t.GeographicalArea = strings.TrimSpace(t.GeographicalArea)
	t.ScopeOfRights = SanitizeText(t.ScopeOfRights)
	t.FeeType = strings.ToUpper(strings.TrimSpace(t.FeeType))
	if t.FeeType == "" {
		t.FeeType = FeeTypeNone
	}
	t.Currency = strings.ToUpper(strings.TrimSpace(t.Currency))
	t.PaymentPeriod = strings.TrimSpace(t.PaymentPeriod)
	t.PaymentMethod = strings.TrimSpace(t.PaymentMethod)
	t.DueDate = presentDate(t.DueDate)
}

// Payload drops the fee sub-fields that the current fee type hides. The form
// keeps them so switching the fee type back restores what was typed.
func (t *Terms) Payload() any {
	out := *t
	if out.FeeType != FeeTypeFixed {
		out.FeeAmount = nil
	}
	if out.FeeType == FeeTypeNone {
		out.Currency = ""
		out.PaymentPeriod = ""
		out.PaymentMethod = ""
		out.DueDate = nil
	}
	return &out
}

// FileHandle references an uploaded attachment in object storage.
type FileHandle struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	ObjectName  string `json:"object_name,omitempty"`
	URL         string `json:"url,omitempty"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
}

// Attachments is step 4.
type Attachments struct {
	Files []FileHandle `json:"files" validate:"dive"`
	Notes string       `json:"notes,omitempty"`
}

func (a *Attachments) Step() Step { return StepAttachments }

func (a *Attachments) Normalize() {
	if a.Files == nil {
		a.Files = []FileHandle{}
	}
	a.Notes = SanitizeText(a.Notes)
}

func (a *Attachments) Payload() any {
	out := *a
	return &out
}

// TransferContract is what the local-backed transfer wizard assembles when
// the user finishes all steps.
type TransferContract struct {
	GeneralInfo *GeneralInfo `json:"general_info"`
	Partners    *Partners    `json:"partners,omitempty"`
	Terms       *Terms       `json:"terms"`
	Attachments *Attachments `json:"attachments,omitempty"`
}
