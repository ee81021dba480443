// Package script classifies text as Latin-, Hangul- or Japanese-dominant by
// measuring how much of it each character class covers.
package script

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultThreshold is the coverage ratio a class needs to win.
const DefaultThreshold = 0.5

// Class is the dominant writing system of a text.
type Class int

const (
	Latin Class = iota
	Hangul
	Japanese
)

var classNames = [...]string{
	Latin:    "latin",
	Hangul:   "hangul",
	Japanese: "japanese",
}

// String returns the lower-case class name.
func (c Class) String() string {
	if int(c) >= 0 && int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// Rule-based language codes.
const (
	CodeKorean   = "ko"
	CodeJapanese = "jp"
)

// ErrEmptyText is returned when there is nothing to measure.
var ErrEmptyText = errors.New("empty text")

// Each pattern matches everything outside its class; stripping the matches
// leaves only the characters of that class.
var (
	notAlpha    = regexp.MustCompile(`[^a-zA-Z]+`)
	notHangul   = regexp.MustCompile(`[^가-힣ㅏ-ㅣㄱ-ㅎ]+`)
	notJapanese = regexp.MustCompile(`[^ぁ-ゔァ-ヴー々〆〤]+`)
)

// Result is the outcome of script detection.
type Result struct {
	Class Class `json:"class"`

	// Total is the code-point length of the lower-cased text.
	Total         int `json:"total"`
	AlphaCount    int `json:"alpha_count"`
	HangulCount   int `json:"hangul_count"`
	JapaneseCount int `json:"japanese_count"`

	AlphaRatio    float64 `json:"alpha_ratio"`
	HangulRatio   float64 `json:"hangul_ratio"`
	JapaneseRatio float64 `json:"japanese_ratio"`

	// Alpha holds the text with everything but ASCII letters removed.
	Alpha string `json:"-"`
}

// Code returns the rule-based language code for Hangul and Japanese results.
// Latin results have no rule-based code.
func (r Result) Code() (string, bool) {
	switch r.Class {
	case Hangul:
		return CodeKorean, true
	case Japanese:
		return CodeJapanese, true
	default:
		return "", false
	}
}

// Lower applies full Unicode lower-casing.
func Lower(text string) string {
	return cases.Lower(language.Und).String(text)
}

// Detect lower-cases text and picks the dominant class. Ratios are taken over the
// length of the whole text. The alphabet check runs first, then Hangul; anything
// else is reported as Japanese without checking the Japanese ratio. Comparisons
// against threshold are inclusive.
func Detect(text string, threshold float64) (Result, error) {
	if text == "" {
		return Result{}, ErrEmptyText
	}

	lowered := Lower(text)
	total := utf8.RuneCountInString(lowered)
	if total == 0 {
		return Result{}, ErrEmptyText
	}

	alpha := notAlpha.ReplaceAllString(lowered, "")
	hangul := notHangul.ReplaceAllString(lowered, "")
	japanese := notJapanese.ReplaceAllString(lowered, "")

	res := Result{
		Total:         total,
		AlphaCount:    utf8.RuneCountInString(alpha),
		HangulCount:   utf8.RuneCountInString(hangul),
		JapaneseCount: utf8.RuneCountInString(japanese),
		Alpha:         alpha,
	}
	res.AlphaRatio = float64(res.AlphaCount) / float64(total)
	res.HangulRatio = float64(res.HangulCount) / float64(total)
	res.JapaneseRatio = float64(res.JapaneseCount) / float64(total)

	switch {
	case res.AlphaRatio >= threshold:
		res.Class = Latin
	case res.HangulRatio >= threshold:
		res.Class = Hangul
	default:
		res.Class = Japanese
	}

	return res, nil
}
