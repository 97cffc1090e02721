package dashboard

import "strings"

// ResolveLocalizedValue selects the best translation for the provided locale and falls back to the supplied value.
// Keys are matched case-insensitively, and language-region pairs (`en-us`) fall back to their
// base language (`en`) when present.
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		for key, value := range values {
			if strings.EqualFold(key, candidate) && value != "" {
				return value
			}
		}
	}
	return fallback
}

// NameForLocale returns the display name for the requested locale, falling back to the Portuguese name.
func (def WidgetDefinition) NameForLocale(locale string) string {
	return ResolveLocalizedValue(def.NameLocalized, locale, def.Name)
}

func normalizeLocaleMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	normalized := make(map[string]string, len(values))
	for key, value := range values {
		key = normalizeLocale(key)
		if key == "" || value == "" {
			continue
		}
		normalized[key] = value
	}
	return normalized
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return nil
	}
	candidates := []string{locale}
	if idx := strings.IndexAny(locale, "-_"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	return candidates
}

func normalizeLocale(locale string) string {
	return strings.TrimSpace(strings.ToLower(locale))
}
