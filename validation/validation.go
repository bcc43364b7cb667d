// Package validation provides the form validation layer for the portal.
//
// Validators are pure functions: each returns a human-readable error message,
// or the empty string when the value is valid. No validator performs I/O, so
// the full set of checks for a form can run before any remote call is made.
package validation

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"
)

// MinVPCGroupMembers is the minimum number of interfaces a vPC group needs.
const MinVPCGroupMembers = 2

// RequiredField checks that a required field is not empty or whitespace-only.
func RequiredField(value, fieldName string) string {
	if strings.TrimSpace(value) == "" {
		return fmt.Sprintf("%s is required.", fieldName)
	}
	return ""
}

// RequiredSelection checks that a selection field holds one of the available
// options. When no options are available there is nothing to validate: the
// upstream option source may be down and the form falls back to manual entry.
func RequiredSelection(options []string, selected, fieldName string) string {
	if len(options) == 0 {
		return ""
	}
	if selected == "" || !contains(options, selected) {
		return fmt.Sprintf("%s is required.", fieldName)
	}
	return ""
}

// UniqueNames checks that a list of names contains only unique non-empty
// values. Blank entries are ignored. The error lists every duplicated value,
// sorted and comma-joined.
func UniqueNames(names []string, fieldName string) string {
	counts := make(map[string]int, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		counts[name]++
	}

	var duplicates []string
	for name, count := range counts {
		if count > 1 {
			duplicates = append(duplicates, name)
		}
	}
	if len(duplicates) == 0 {
		return ""
	}
	sort.Strings(duplicates)

	plural := fieldName
	if !strings.HasSuffix(fieldName, "s") {
		plural = fieldName + "s"
	}
	return fmt.Sprintf("%s must be unique. Duplicates found: %s", plural, strings.Join(duplicates, ", "))
}

// MinimumCount checks that at least minCount items have non-blank content.
func MinimumCount(items []string, minCount int, fieldName string) string {
	valid := 0
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			valid++
		}
	}
	if valid >= minCount {
		return ""
	}

	plural := fieldName
	verb := "is"
	if minCount != 1 {
		plural = fieldName + "s"
		verb = "are"
	}
	return fmt.Sprintf("At least %d %s %s required.", minCount, plural, verb)
}

// VPCGroups checks that every referenced vPC group has at least
// MinVPCGroupMembers interfaces. flags[i] indicates whether interface i
// participates in the group named groups[i]. The returned slice lists the
// group names with too few members, in first-seen order.
//
// A length mismatch between flags and groups is a programming error, not a
// user-input error, and is reported as an error rather than a message.
func VPCGroups(flags []bool, groups []string) ([]string, error) {
	if len(flags) != len(groups) {
		return nil, fmt.Errorf("flags and groups must have same length: %d != %d", len(flags), len(groups))
	}

	counts := make(map[string]int)
	var order []string
	for i, enabled := range flags {
		group := strings.TrimSpace(groups[i])
		if !enabled || group == "" {
			continue
		}
		if _, seen := counts[group]; !seen {
			order = append(order, group)
		}
		counts[group]++
	}

	var undersized []string
	for _, group := range order {
		if counts[group] < MinVPCGroupMembers {
			undersized = append(undersized, group)
		}
	}
	return undersized, nil
}

// IPSubnet checks that a required field contains a valid CIDR subnet.
// Host bits may be set ("192.168.1.1/24" is accepted).
func IPSubnet(value, fieldName string) string {
	if strings.TrimSpace(value) == "" {
		return fmt.Sprintf("%s is required", fieldName)
	}
	return subnetFormat(value, fieldName)
}

// IPSubnetOptional is IPSubnet for optional fields: blank is valid.
func IPSubnetOptional(value, fieldName string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return subnetFormat(value, fieldName)
}

func subnetFormat(value, fieldName string) string {
	if _, err := netip.ParsePrefix(strings.TrimSpace(value)); err != nil {
		return fmt.Sprintf("%s must be a valid IP subnet (e.g., 192.168.1.0/24)", fieldName)
	}
	return ""
}

// Collect filters out empty results, preserving the order of the remaining
// error messages. Validators are expected to be passed in display order.
func Collect(results ...string) []string {
	errs := make([]string, 0, len(results))
	for _, r := range results {
		if r = strings.TrimSpace(r); r != "" {
			errs = append(errs, r)
		}
	}
	return errs
}

func contains(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
