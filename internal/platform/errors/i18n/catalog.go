// Package i18n renders user-facing messages for ledger error codes.
package i18n

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// BaseLocale is the locale every lookup falls back to.
const BaseLocale = "en-US"

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

var (
	catalogsMu sync.RWMutex
	catalogs   map[string]*Catalog
	// supported keeps registration order; BaseLocale is always first so the
	// matcher falls back to it.
	supported []language.Tag
	matcher   language.Matcher
)

func init() {
	mustRegister(BaseLocale, enUSMessages)
	mustRegister("pt-BR", ptBRMessages)
}

func mustRegister(locale string, messages map[Code]string) {
	if err := RegisterCatalog(locale, NewCatalog(locale, messages)); err != nil {
		panic(err)
	}
}

// Match resolves an Accept-Language value to the best registered locale.
// Blank, malformed, or unmatched values resolve to BaseLocale.
func Match(acceptLanguage string) string {
	accept := strings.TrimSpace(acceptLanguage)
	if accept == "" {
		return BaseLocale
	}
	prefs, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(prefs) == 0 {
		return BaseLocale
	}

	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	_, index, confidence := matcher.Match(prefs...)
	if confidence == language.No || index < 0 || index >= len(supported) {
		return BaseLocale
	}
	return supported[index].String()
}

// GetCatalog returns the catalog that best serves the given locale or
// Accept-Language value. Falls back to en-US.
func GetCatalog(locale string) *Catalog {
	key := Match(locale)
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	if c, ok := catalogs[key]; ok {
		return c
	}
	return catalogs[BaseLocale]
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

// RegisterCatalog registers a catalog for a BCP 47 locale and makes it
// available to Match. Registering a locale again replaces its catalog.
func RegisterCatalog(locale string, cat *Catalog) error {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return fmt.Errorf("parse locale %q: %w", locale, err)
	}
	if cat == nil {
		return fmt.Errorf("catalog for %s is nil", tag)
	}
	key := tag.String()
	cat.locale = key

	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	if catalogs == nil {
		catalogs = make(map[string]*Catalog)
	}
	if _, ok := catalogs[key]; !ok {
		supported = append(supported, tag)
		matcher = language.NewMatcher(supported)
	}
	catalogs[key] = cat
	return nil
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{
		locale:   locale,
		messages: cloned,
	}
}
