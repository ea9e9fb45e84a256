package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"
)

type entry struct {
	code string // Whisper language code
	name string // lower-case language name
}

// Ordered the way the languages are offered to users.
var languages = []entry{
	{"en", "english"}, {"zh", "chinese"}, {"de", "german"}, {"es", "spanish"},
	{"ru", "russian"}, {"ko", "korean"}, {"fr", "french"}, {"ja", "japanese"},
	{"pt", "portuguese"}, {"tr", "turkish"}, {"pl", "polish"}, {"ca", "catalan"},
	{"nl", "dutch"}, {"ar", "arabic"}, {"sv", "swedish"}, {"it", "italian"},
	{"id", "indonesian"}, {"hi", "hindi"}, {"fi", "finnish"}, {"vi", "vietnamese"},
	{"he", "hebrew"}, {"uk", "ukrainian"}, {"el", "greek"}, {"ms", "malay"},
	{"cs", "czech"}, {"ro", "romanian"}, {"da", "danish"}, {"hu", "hungarian"},
	{"ta", "tamil"}, {"no", "norwegian"}, {"th", "thai"}, {"ur", "urdu"},
	{"hr", "croatian"}, {"bg", "bulgarian"}, {"lt", "lithuanian"}, {"la", "latin"},
	{"mi", "maori"}, {"ml", "malayalam"}, {"cy", "welsh"}, {"sk", "slovak"},
	{"te", "telugu"}, {"fa", "persian"}, {"lv", "latvian"}, {"bn", "bengali"},
	{"sr", "serbian"}, {"az", "azerbaijani"}, {"sl", "slovenian"}, {"kn", "kannada"},
	{"et", "estonian"}, {"mk", "macedonian"}, {"br", "breton"}, {"eu", "basque"},
	{"is", "icelandic"}, {"hy", "armenian"}, {"ne", "nepali"}, {"mn", "mongolian"},
	{"bs", "bosnian"}, {"kk", "kazakh"}, {"sq", "albanian"}, {"sw", "swahili"},
	{"gl", "galician"}, {"mr", "marathi"}, {"pa", "punjabi"}, {"si", "sinhala"},
	{"km", "khmer"}, {"sn", "shona"}, {"yo", "yoruba"}, {"so", "somali"},
	{"af", "afrikaans"}, {"oc", "occitan"}, {"ka", "georgian"}, {"be", "belarusian"},
	{"tg", "tajik"}, {"sd", "sindhi"}, {"gu", "gujarati"}, {"am", "amharic"},
	{"yi", "yiddish"}, {"lo", "lao"}, {"uz", "uzbek"}, {"fo", "faroese"},
	{"ht", "haitian creole"}, {"ps", "pashto"}, {"tk", "turkmen"}, {"nn", "nynorsk"},
	{"mt", "maltese"}, {"sa", "sanskrit"}, {"lb", "luxembourgish"}, {"my", "myanmar"},
	{"bo", "tibetan"}, {"tl", "tagalog"}, {"mg", "malagasy"}, {"as", "assamese"},
	{"tt", "tatar"}, {"haw", "hawaiian"}, {"ln", "lingala"}, {"ha", "hausa"},
	{"ba", "bashkir"}, {"jw", "javanese"}, {"su", "sundanese"},
}

// ISO codes that Whisper spells differently.
var aliases = map[string]string{
	"jv":  "jw",
	"iw":  "he",
	"nb":  "no",
	"fil": "tl",
}

var (
	byCode map[string]*entry
	byName map[string]*entry
	title  = cases.Title(xlanguage.English)
)

func init() {
	byCode = make(map[string]*entry, len(languages))
	byName = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode[e.code] = e
		byName[e.name] = e
	}
}

func lookup(value string) *entry {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return nil
	}
	if e, ok := byName[value]; ok {
		return e
	}
	if e, ok := byCode[value]; ok {
		return e
	}
	if alias, ok := aliases[value]; ok {
		return byCode[alias]
	}
	tag, err := xlanguage.Parse(value)
	if err != nil {
		return nil
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return nil
	}
	code := base.String()
	if alias, ok := aliases[code]; ok {
		code = alias
	}
	return byCode[code]
}

// Code resolves a language name, Whisper code or BCP 47 tag to the Whisper code.
func Code(value string) (string, bool) {
	if e := lookup(value); e != nil {
		return e.code, true
	}
	return "", false
}

// Supported reports whether value resolves to a catalog language.
func Supported(value string) bool {
	return lookup(value) != nil
}

// DisplayName returns the title-cased name for a language, e.g. "Haitian Creole".
// Unknown input is returned trimmed and unchanged.
func DisplayName(value string) string {
	if e := lookup(value); e != nil {
		return title.String(e.name)
	}
	return strings.TrimSpace(value)
}

// Names returns the lower-case language names in presentation order.
func Names() []string {
	names := make([]string, 0, len(languages))
	for _, e := range languages {
		names = append(names, e.name)
	}
	return names
}
