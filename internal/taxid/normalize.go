// internal/taxid/normalize.go
package taxid

import (
	"encoding/json"
	"strings"
	"time"
)

// normalize maps a registry response onto a Result. The registry answers
// with either a single record, a list of records or an {"items": [...]}
// envelope whose records nest the fields under "ЮЛ" or "ИП".
func normalize(inn string, raw json.RawMessage, now time.Time) *Result {
	res := &Result{
		INN:        inn,
		IsValid:    true,
		OrgType:    OrgType(inn),
		Source:     "registry",
		VerifiedAt: now,
	}

	record := firstRecord(raw)
	if len(record) == 0 {
		res.RegistryStatus = StatusNotFound
		return res
	}

	switch {
	case record["НаимЮЛ"] != nil:
		res.CompanyName = strings.TrimSpace(str(record, "НаимЮЛ"))
		res.ShortName = str(record, "СокрНаимЮЛ")
		res.OGRN = str(record, "ОГРН")
		res.OGRNDate = str(record, "ДатаОГРН")
		res.Director = str(record, "Руководитель")
	case record["ФИО"] != nil:
		res.CompanyName = strings.TrimSpace(str(record, "ФИО"))
		res.OGRN = str(record, "ОГРНИП")
		res.OGRNDate = str(record, "ДатаОГРНИП")
	}
	res.RegistryStatus = str(record, "Статус")
	res.Address = str(record, "Адрес")
	res.OKVED = str(record, "ОКВЭД")
	res.OKVEDText = str(record, "ТекстОКВЭД")
	res.IsActive = strings.Contains(strings.ToLower(res.RegistryStatus), "действ")
	return res
}

func firstRecord(raw json.RawMessage) map[string]interface{} {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}

	if m, ok := v.(map[string]interface{}); ok {
		if items, ok := m["items"]; ok {
			v = items
		}
	}
	if list, ok := v.([]interface{}); ok {
		if len(list) == 0 {
			return nil
		}
		v = list[0]
	}

	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	for _, nested := range []string{"ЮЛ", "ИП"} {
		if inner, ok := m[nested].(map[string]interface{}); ok {
			return inner
		}
	}
	return m
}

func str(m map[string]interface{}, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}
