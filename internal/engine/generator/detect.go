package generator

import (
	"bufio"
	"regexp"
	"strings"

	"pyuml/internal/engine/model"
)

type detectRule struct {
	kind    model.Kind
	pattern *regexp.Regexp
}

// Rules are tried per line in order; the first line matching any rule
// decides. The skinparam markers written by this package come first.
var detectRules = []detectRule{
	{model.KindClass, regexp.MustCompile(`^skinparam\s+classAttributeIconSize\b`)},
	{model.KindSequence, regexp.MustCompile(`^skinparam\s+sequence`)},
	{model.KindActivity, regexp.MustCompile(`^skinparam\s+activity`)},
	{model.KindState, regexp.MustCompile(`^skinparam\s+state`)},

	{model.KindState, regexp.MustCompile(`^state\s|\[\*\]`)},
	{model.KindActivity, regexp.MustCompile(`^(start|stop|end|fork|detach)$|^if\s*\(|^:.*;$`)},
	{model.KindSequence, regexp.MustCompile(`^(participant|actor|boundary|control|entity|database|collections|queue)\s|^(autonumber|activate|deactivate)\b`)},
	{model.KindClass, regexp.MustCompile(`^(abstract\s+class|class|interface|enum)\s`)},
}

var ignoredPrefixes = []string{"@startuml", "@enduml", "'", "title", "!", "note", "floating note", "hide", "left to right", "top to bottom"}

// DetectKind classifies PlantUML markup by keyword. It reports false when
// no rule matches.
func DetectKind(markup string) (model.Kind, bool) {
	sc := bufio.NewScanner(strings.NewReader(markup))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || hasAnyPrefix(line, ignoredPrefixes) {
			continue
		}
		for _, rule := range detectRules {
			if rule.pattern.MatchString(line) {
				return rule.kind, true
			}
		}
	}
	return 0, false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
