package compile

import "strings"

// ClassifyFailure distinguishes an internal compiler error from an ordinary
// diagnostic by scanning stderr for canonical ICE substrings. Matching is a
// case-sensitive substring search, mirroring the original Python detector:
// these phrases are emitted verbatim by compiler crash handlers and are not
// expected to appear in legitimate diagnostic text.
func ClassifyFailure(stderr string, signatures []string) OutcomeKind {
	for _, sig := range signatures {
		if sig == "" {
			continue
		}
		if strings.Contains(stderr, sig) {
			return OutcomeInternalError
		}
	}
	return OutcomeDiagnostic
}
