package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hUstbit37/ipms-search-sub001/model"
)

var ErrUnknownType = errors.New("unknown ip type")

// Normalize maps a tagged catalog row to the common IPItem shape.
func Normalize(raw model.RawIPItem) (model.IPItem, error) {
	switch raw.Type {
	case model.IPTypeTrademark:
		if raw.Trademark == nil {
			return model.IPItem{}, fmt.Errorf("trademark item without payload")
		}
		return normalizeTrademark(raw.Trademark), nil
	case model.IPTypeIndustrialDesign:
		if raw.IndustrialDesign == nil {
			return model.IPItem{}, fmt.Errorf("industrial design item without payload")
		}
		return normalizeIndustrialDesign(raw.IndustrialDesign), nil
	default:
		return model.IPItem{}, fmt.Errorf("%w: %q", ErrUnknownType, raw.Type)
	}
}

func normalizeTrademark(tm *model.Trademark) model.IPItem {
	return model.IPItem{
		ID:                string(tm.ID),
		Type:              model.IPTypeTrademark,
		Name:              strings.TrimSpace(tm.MarkName),
		ApplicationNumber: strings.TrimSpace(tm.ApplicationNumber),
		CertificateNumber: strings.TrimSpace(tm.CertificateNumber),
		Classification:    Classification(tm.NiceClassListRaw, tm.NiceClassList, tm.NiceClass),
		Status:            tm.Status,
		StatusLabel:       statusLabel(trademarkStatuses, tm.Status),
	}
}

func normalizeIndustrialDesign(d *model.IndustrialDesign) model.IPItem {
	return model.IPItem{
		ID:                string(d.ID),
		Type:              model.IPTypeIndustrialDesign,
		Name:              strings.TrimSpace(d.DesignName),
		ApplicationNumber: strings.TrimSpace(d.ApplicationNumber),
		CertificateNumber: strings.TrimSpace(d.CertificateNumber),
		Classification:    Classification(d.LocarnoClassListRaw, d.LocarnoClassList, d.LocarnoClass),
		Status:            d.Status,
		StatusLabel:       statusLabel(designStatuses, d.Status),
	}
}

// Classification derives the display string. A pre-formatted list wins, then
// structured entries, then the legacy flat field.
func Classification(formatted []string, entries []model.ClassEntry, legacy string) string {
	if s := joinNonEmpty(formatted); s != "" {
		return s
	}

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		if v := strings.TrimSpace(e.Value); v != "" {
			parts = append(parts, v)
			continue
		}
		class := strings.TrimSpace(e.Class)
		if class == "" {
			continue
		}
		if sub := strings.TrimSpace(e.Subclass); sub != "" {
			class += "-" + sub
		}
		parts = append(parts, class)
	}
	if s := joinNonEmpty(parts); s != "" {
		return s
	}

	return strings.TrimSpace(legacy)
}

func joinNonEmpty(values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, ", ")
}

var trademarkStatuses = map[string]string{
	"PENDING":    "Pending",
	"FILED":      "Filed",
	"PUBLISHED":  "Published",
	"REGISTERED": "Registered",
	"REFUSED":    "Refused",
	"OPPOSED":    "Opposed",
	"EXPIRED":    "Expired",
	"WITHDRAWN":  "Withdrawn",
	"CANCELLED":  "Cancelled",
}

var designStatuses = map[string]string{
	"PENDING":   "Pending",
	"FILED":     "Filed",
	"PUBLISHED": "Published",
	"GRANTED":   "Granted",
	"REFUSED":   "Refused",
	"EXPIRED":   "Expired",
	"WITHDRAWN": "Withdrawn",
	"INVALID":   "Invalidated",
}

func statusLabel(table map[string]string, code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Unknown"
	}
	if label, ok := table[strings.ToUpper(code)]; ok {
		return label
	}
	return code
}
