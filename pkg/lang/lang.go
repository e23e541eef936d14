package lang

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/Laky-64/gologging"
)

//go:embed locale/*.json
var localeFS embed.FS

const fallbackLang = "en"

var (
	mu           sync.RWMutex
	translations = make(map[string]map[string]string)
	loadOnce     sync.Once
)

// LoadTranslations reads every locale/<code>.json bundled into the binary.
func LoadTranslations() error {
	return loadFrom(localeFS, "locale")
}

func loadFrom(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return err
	}

	loaded := make(map[string]map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		langCode := strings.TrimSuffix(entry.Name(), ".json")
		file, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		var langMap map[string]string
		if err := json.Unmarshal(file, &langMap); err != nil {
			return fmt.Errorf("locale %s: %w", langCode, err)
		}
		loaded[langCode] = langMap
		gologging.DebugF("Loaded language: %s", langCode)
	}

	mu.Lock()
	translations = loaded
	mu.Unlock()
	return nil
}

func ensureLoaded() {
	loadOnce.Do(func() {
		mu.RLock()
		empty := len(translations) == 0
		mu.RUnlock()
		if !empty {
			return
		}
		if err := LoadTranslations(); err != nil {
			gologging.ErrorF("[Lang] Failed to load translations: %v", err)
		}
	})
}

// GetString returns the text for key in langCode, falling back to English and then to the key itself.
func GetString(langCode, key string) string {
	ensureLoaded()
	mu.RLock()
	defer mu.RUnlock()

	if lang, ok := translations[langCode]; ok {
		if val, ok := lang[key]; ok {
			return val
		}
	}
	// Fallback to English
	if lang, ok := translations[fallbackLang]; ok {
		if val, ok := lang[key]; ok {
			return val
		}
	}
	return key
}

// Format is GetString followed by fmt.Sprintf.
func Format(langCode, key string, args ...any) string {
	return fmt.Sprintf(GetString(langCode, key), args...)
}

func GetAvailableLangs() []string {
	ensureLoaded()
	mu.RLock()
	defer mu.RUnlock()

	langs := make([]string, 0, len(translations))
	for k := range translations {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	return langs
}

func GetLangDisplayName(langCode string) string {
	ensureLoaded()
	mu.RLock()
	defer mu.RUnlock()

	if lang, ok := translations[langCode]; ok {
		if val, ok := lang["lang_name"]; ok {
			return val
		}
	}

	return "Unknown"
}
