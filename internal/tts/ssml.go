package tts

import "strings"

// speakOpenPrefix and speakCloseTag delimit a speak envelope produced by
// upstream tagging.
const (
	speakOpenPrefix = "<speak"
	speakCloseTag   = "</speak>"
)

// stripSpeakEnvelope removes a surrounding speak element, returning the inner
// markup. Text without an envelope is returned unchanged.
func stripSpeakEnvelope(text string) string {
	trimmed := strings.TrimSpace(text)

	if !strings.HasPrefix(trimmed, speakOpenPrefix) ||
		!strings.HasSuffix(trimmed, speakCloseTag) {
		return text
	}

	openEnd := strings.IndexByte(trimmed, '>')
	if openEnd < 0 {
		return text
	}

	inner := trimmed[openEnd+1 : len(trimmed)-len(speakCloseTag)]

	return strings.TrimSpace(inner)
}

// splitSSML splits tagged text into pieces of at most limit characters
// without rewriting punctuation or cutting inside markup. Split points are
// whitespace outside tags at element depth zero, so a paired element always
// lands whole in one piece. A single element longer than the limit is kept
// intact and oversized.
func splitSSML(text string, limit int) []string {
	segments := ssmlSegments(stripSpeakEnvelope(text))

	var pieces []string

	var current strings.Builder

	for _, segment := range segments {
		if current.Len() == 0 {
			current.WriteString(segment)

			continue
		}

		if current.Len()+1+len(segment) > limit {
			pieces = append(pieces, current.String())
			current.Reset()
			current.WriteString(segment)

			continue
		}

		current.WriteByte(' ')
		current.WriteString(segment)
	}

	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}

	return pieces
}

// ssmlSegments cuts markup text at whitespace that sits outside any tag and
// at element depth zero. Everything between two such cuts is one indivisible
// segment.
func ssmlSegments(text string) []string {
	var segments []string

	var current strings.Builder

	depth := 0
	inTag := false
	closingTag := false

	flush := func() {
		if current.Len() > 0 {
			segments = append(segments, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		char := text[i]

		switch {
		case inTag:
			current.WriteByte(char)

			if char != '>' {
				continue
			}

			inTag = false
			selfClosing := i > 0 && text[i-1] == '/'

			switch {
			case closingTag:
				if depth > 0 {
					depth--
				}
			case selfClosing:
			default:
				depth++
			}
		case char == '<':
			inTag = true
			closingTag = i+1 < len(text) && text[i+1] == '/'

			current.WriteByte(char)
		case char == ' ' || char == '\t' || char == '\n' || char == '\r':
			if depth == 0 {
				flush()
			} else {
				current.WriteByte(char)
			}
		default:
			current.WriteByte(char)
		}
	}

	flush()

	return segments
}
