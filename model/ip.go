package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// IPType selects which IP catalog a search runs against.
type IPType string

const (
	IPTypeTrademark        IPType = "trademark"
	IPTypeIndustrialDesign IPType = "industrial_design"
)

func ParseIPType(s string) (IPType, error) {
	switch t := IPType(strings.ToLower(strings.TrimSpace(s))); t {
	case IPTypeTrademark, IPTypeIndustrialDesign:
		return t, nil
	default:
		return "", fmt.Errorf("unknown ip type %q", s)
	}
}

// ClassEntry is one structured classification entry. The backend sends
// either a plain string ("35") or an object with a class number and an
// optional subclass.
type ClassEntry struct {
	Value    string
	Class    string
	Subclass string
}

func (c *ClassEntry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.Value)
	}
	var obj struct {
		Class       ID `json:"class"`
		ClassNumber ID `json:"class_number"`
		Subclass    ID `json:"subclass"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid class entry: %w", err)
	}
	c.Class = string(obj.ClassNumber)
	if c.Class == "" {
		c.Class = string(obj.Class)
	}
	c.Subclass = string(obj.Subclass)
	return nil
}

func (c ClassEntry) MarshalJSON() ([]byte, error) {
	if c.Value != "" {
		return json.Marshal(c.Value)
	}
	return json.Marshal(map[string]string{"class_number": c.Class, "subclass": c.Subclass})
}

// Trademark is a trademark catalog row as the backend returns it.
type Trademark struct {
	ID                ID           `json:"id"`
	MarkName          string       `json:"mark_name"`
	ApplicationNumber string       `json:"application_number"`
	CertificateNumber string       `json:"certificate_number"`
	NiceClassListRaw  []string     `json:"nice_class_list_raw"`
	NiceClassList     []ClassEntry `json:"nice_class_list"`
	NiceClass         string       `json:"nice_class"`
	Status            string       `json:"status"`
}

// IndustrialDesign is an industrial design catalog row.
type IndustrialDesign struct {
	ID                  ID           `json:"id"`
	DesignName          string       `json:"design_name"`
	ApplicationNumber   string       `json:"application_number"`
	CertificateNumber   string       `json:"certificate_number"`
	LocarnoClassListRaw []string     `json:"locarno_class_list_raw"`
	LocarnoClassList    []ClassEntry `json:"locarno_class_list"`
	LocarnoClass        string       `json:"locarno_class"`
	Status              string       `json:"status"`
}

// RawIPItem is a catalog row tagged with the catalog it came from. Exactly one
// of the variant pointers matching Type is set.
type RawIPItem struct {
	Type             IPType
	Trademark        *Trademark
	IndustrialDesign *IndustrialDesign
}

// DecodeRawIPItem decodes a catalog row for a known catalog type.
func DecodeRawIPItem(t IPType, data []byte) (RawIPItem, error) {
	item := RawIPItem{Type: t}
	switch t {
	case IPTypeTrademark:
		item.Trademark = &Trademark{}
		if err := json.Unmarshal(data, item.Trademark); err != nil {
			return item, fmt.Errorf("failed to decode trademark: %w", err)
		}
	case IPTypeIndustrialDesign:
		item.IndustrialDesign = &IndustrialDesign{}
		if err := json.Unmarshal(data, item.IndustrialDesign); err != nil {
			return item, fmt.Errorf("failed to decode industrial design: %w", err)
		}
	default:
		return item, fmt.Errorf("unknown ip type %q", t)
	}
	return item, nil
}

// IPItem is the source-independent shape of a selectable IP asset.
type IPItem struct {
	ID                string `json:"id"`
	Type              IPType `json:"type"`
	Name              string `json:"name"`
	ApplicationNumber string `json:"application_number,omitempty"`
	CertificateNumber string `json:"certificate_number,omitempty"`
	Classification    string `json:"classification"`
	Status            string `json:"status,omitempty"`
	StatusLabel       string `json:"status_label"`
}
