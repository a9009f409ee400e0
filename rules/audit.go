package rules

import (
	"strings"
)

// FindingKind classifies an audit finding.
type FindingKind string

const (
	FindingNullConditions  FindingKind = "null_conditions"
	FindingEmptyConditions FindingKind = "empty_conditions"
	FindingCompileError    FindingKind = "compile_error"
	FindingMissingNoLucky  FindingKind = "missing_no_lucky_stars"
	FindingMissingBranch   FindingKind = "missing_has_branch"
	FindingMissingKongJie  FindingKind = "missing_kong_jie"
	FindingRejectedRecord  FindingKind = "rejected_record"
)

// Finding is one suspicious rule.
type Finding struct {
	RuleID  string      `json:"rule_id" yaml:"rule_id"`
	Kind    FindingKind `json:"kind" yaml:"kind"`
	Message string      `json:"message" yaml:"message"`
}

// Audit checks a library for rules whose conditions are missing, do not
// compile, or contradict keywords in their description.
func Audit(lib *Library) []Finding {
	var out []Finding
	for _, rj := range lib.Rejected {
		out = append(out, Finding{RuleID: rj.ID, Kind: FindingRejectedRecord, Message: rj.Err.Error()})
	}
	for _, r := range lib.Rules {
		out = append(out, AuditRule(r)...)
	}
	return out
}

// AuditRule checks a single rule.
func AuditRule(r Rule) []Finding {
	finding := func(kind FindingKind, msg string) Finding {
		return Finding{RuleID: r.ID, Kind: kind, Message: msg}
	}

	if isEmpty(r.Conditions) {
		if r.Conditions == nil {
			return []Finding{finding(FindingNullConditions, "conditions are null")}
		}
		return []Finding{finding(FindingEmptyConditions, "conditions have no logic, criteria or target")}
	}

	var out []Finding
	if _, err := Compile(r.Conditions); err != nil {
		out = append(out, finding(FindingCompileError, err.Error()))
	}

	desc := r.Description
	if strings.Contains(desc, "無吉") && !hasKey(r.Conditions, "no_lucky_stars") {
		out = append(out, finding(FindingMissingNoLucky, "described as 無吉 but no_lucky_stars is not used"))
	}
	if (strings.Contains(desc, "四馬") || strings.Contains(desc, "寅申巳亥")) && !hasKey(r.Conditions, "has_branch") {
		out = append(out, finding(FindingMissingBranch, "described as 四馬/寅申巳亥 but has_branch is not used"))
	}
	if strings.Contains(desc, "空劫") && !hasValue(r.Conditions, "has_star", "di_kong", "di_jie") {
		out = append(out, finding(FindingMissingKongJie, "described as 空劫 but neither di_kong nor di_jie is required"))
	}
	return out
}

// isEmpty reports conditions that are null, empty, or an object without
// logic, criteria or target.
func isEmpty(cond any) bool {
	if cond == nil {
		return true
	}
	m, ok := asMap(cond)
	if !ok {
		list, isList := cond.([]any)
		return isList && len(list) == 0
	}
	if len(m) == 0 {
		return true
	}
	if _, ok := m["logic"]; ok {
		return false
	}
	if crit, ok := m["criteria"].([]any); ok && len(crit) > 0 {
		return false
	}
	target, _ := m["target"].(string)
	return target == ""
}

func hasKey(raw any, key string) bool {
	found := false
	walk(raw, func(k string, _ any) {
		if k == key {
			found = true
		}
	})
	return found
}

// hasValue reports whether some key holds any of values, either directly
// or as a list element.
func hasValue(raw any, key string, values ...string) bool {
	found := false
	walk(raw, func(k string, v any) {
		if k != key || found {
			return
		}
		list, err := stringList(v, key)
		if err != nil {
			return
		}
		for _, s := range list {
			for _, want := range values {
				if s == want {
					found = true
				}
			}
		}
	})
	return found
}
