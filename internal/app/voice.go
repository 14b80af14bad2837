package app

import (
	"regexp"
	"strings"
)

// Speech recognisers often mishear the wake word; these are accepted too.
const wakeWords = `canvas|canva|canvass|campus|cameras?|camvas`

var (
	wakeRe      = regexp.MustCompile(`\b(?:` + wakeWords + `|cancer|can\s+this|can\s+bus)\b`)
	wakeStopRe  = regexp.MustCompile(`\b(?:` + wakeWords + `)\s+stop(?:\s+drawing)?\b`)
	wakeStartRe = regexp.MustCompile(`\b(?:` + wakeWords + `)\s+start\b`)
	stopRe      = regexp.MustCompile(`\bstop\b`)
	numberRe    = regexp.MustCompile(`\b(\d+)\b`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// directHints let a phrase through without the wake word.
var directHints = []string{
	"draw", "shape", "free draw", "freehand",
	"color", "colour", "change", "switch",
	"brush", "size", "thickness", "stroke",
	"clear", "wipe", "erase all", "reset",
	"save", "export", "store",
	"pause", "resume", "continue", "start", "stop", "undo", "redo",
	"import", "load image", "open image", "add image", "add photo",
	"grid", "snap", "guide",
	"slide mode", "presentation", "slideshow",
	"draw mode", "drawing mode", "back to draw",
	"next slide", "prev slide", "previous slide",
}

// spokenShapes is checked in order so "oval" wins over "round".
var spokenShapes = []struct{ word, kind string }{
	{"rectangle", "rectangle"}, {"rect", "rectangle"}, {"square", "rectangle"},
	{"circle", "circle"}, {"round", "circle"}, {"oval", "ellipse"},
	{"triangle", "triangle"}, {"tri", "triangle"},
	{"line", "line"}, {"ellipse", "ellipse"},
	{"heart", "heart"}, {"love", "heart"},
}

var spokenColors = []string{"red", "green", "blue", "black", "yellow", "purple", "orange", "white"}

// ParseTranscript turns a recognised phrase into a command. "stop" works on
// its own; everything else needs the wake word or an obvious command phrase.
// Phrases with the wake word but no recognisable command are reported as not
// ok, like unrelated speech.
func ParseTranscript(text string) (Command, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return Command{}, false
	}

	switch {
	case wakeStopRe.MatchString(text):
		return voice(CmdStop, ""), true
	case wakeStartRe.MatchString(text):
		return voice(CmdResume, ""), true
	case stopRe.MatchString(text):
		return voice(CmdStop, ""), true
	}

	cleaned := strings.Trim(spaceRe.ReplaceAllString(wakeRe.ReplaceAllString(text, " "), " "), " ,.")
	woken := cleaned != text
	if !woken && !containsAny(text, directHints...) {
		return Command{}, false
	}
	if !woken {
		cleaned = text
	}

	for _, parse := range []func(string) (Command, bool){
		parseShape, parseFreeDraw, parseColor, parseBrush, parseSlides, parseSystem,
	} {
		if cmd, ok := parse(cleaned); ok {
			return cmd, true
		}
	}
	return Command{}, false
}

func voice(name, arg string) Command {
	return Command{Name: name, Arg: arg, Source: SourceVoice}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func parseShape(t string) (Command, bool) {
	if !containsAny(t, "draw", "shape") {
		return Command{}, false
	}
	for _, s := range spokenShapes {
		if strings.Contains(t, s.word) {
			return voice(CmdShape, s.kind), true
		}
	}
	return Command{}, false
}

func parseFreeDraw(t string) (Command, bool) {
	if containsAny(t, "free draw", "freehand", "free mode", "freestyle") {
		return voice(CmdFreeDraw, ""), true
	}
	return Command{}, false
}

func parseColor(t string) (Command, bool) {
	if !containsAny(t, "color", "colour", "change", "switch") {
		return Command{}, false
	}
	for _, c := range spokenColors {
		if strings.Contains(t, c) {
			return voice(CmdColor, c), true
		}
	}
	return Command{}, false
}

func parseBrush(t string) (Command, bool) {
	if !containsAny(t, "brush", "size", "thickness", "stroke") {
		return Command{}, false
	}
	if m := numberRe.FindStringSubmatch(t); m != nil && containsAny(t, "set", "to", "size", "thickness") {
		return voice(CmdBrushSet, m[1]), true
	}
	switch {
	case containsAny(t, "increase", "bigger", "larger", "up", "more", "thicker"):
		return voice(CmdBrushUp, ""), true
	case containsAny(t, "decrease", "smaller", "reduce", "down", "less", "thinner"):
		return voice(CmdBrushDown, ""), true
	}
	return Command{}, false
}

func parseSlides(t string) (Command, bool) {
	switch {
	case containsAny(t, "slide mode", "presentation", "slideshow"):
		return voice(CmdSlides, "on"), true
	case containsAny(t, "draw mode", "drawing mode", "back to draw"):
		return voice(CmdSlides, "off"), true
	case containsAny(t, "next slide", "next", "forward"):
		return voice(CmdSlideNext, ""), true
	case containsAny(t, "previous", "prev slide", "back"):
		return voice(CmdSlidePrev, ""), true
	}
	return Command{}, false
}

func parseSystem(t string) (Command, bool) {
	switch {
	case containsAny(t, "clear", "wipe", "erase all", "reset"):
		return voice(CmdClear, ""), true
	case containsAny(t, "save", "export", "store"):
		return voice(CmdSave, ""), true
	case containsAny(t, "pause", "freeze", "hold"):
		return voice(CmdPause, ""), true
	case containsAny(t, "resume", "continue", "unpause", "start"):
		return voice(CmdResume, ""), true
	case strings.Contains(t, "undo"):
		return voice(CmdUndo, ""), true
	case strings.Contains(t, "redo"):
		return voice(CmdRedo, ""), true
	case containsAny(t, "grid", "snap", "guide"):
		return voice(CmdGrid, ""), true
	}
	return Command{}, false
}
