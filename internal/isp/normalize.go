package isp

import (
	"fmt"
	"sort"
	"strings"

	dcss "github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// Declaration groups, in output order.
const (
	groupCustom = iota
	groupPositioning
	groupBox
	groupTypography
	groupVisual
	groupMisc
)

// Groups by property family (the part before the first "-"). Shorthands and
// their longhands share a family, and the few properties that set the same
// value under another family's name are pinned in propertyAliases, so
// reordering across groups never changes which declaration wins.
var propertyFamilies = map[string]int{
	"position": groupPositioning,
	"top":      groupPositioning,
	"right":    groupPositioning,
	"bottom":   groupPositioning,
	"left":     groupPositioning,
	"inset":    groupPositioning,
	"z":        groupPositioning,
	"float":    groupPositioning,
	"clear":    groupPositioning,

	"display":  groupBox,
	"box":      groupBox,
	"flex":     groupBox,
	"grid":     groupBox,
	"align":    groupBox,
	"justify":  groupBox,
	"place":    groupBox,
	"order":    groupBox,
	"gap":      groupBox,
	"row":      groupBox,
	"column":   groupBox,
	"columns":  groupBox,
	"width":    groupBox,
	"height":   groupBox,
	"min":      groupBox,
	"max":      groupBox,
	"inline":   groupBox,
	"block":    groupBox,
	"aspect":   groupBox,
	"margin":   groupBox,
	"padding":  groupBox,
	"border":   groupBox,
	"overflow": groupBox,

	"font":      groupTypography,
	"line":      groupTypography,
	"letter":    groupTypography,
	"word":      groupTypography,
	"white":     groupTypography,
	"text":      groupTypography,
	"vertical":  groupTypography,
	"list":      groupTypography,
	"color":     groupTypography,
	"direction": groupTypography,
	"hyphens":   groupTypography,
	"tab":       groupTypography,

	"background": groupVisual,
	"opacity":    groupVisual,
	"visibility": groupVisual,
	"outline":    groupVisual,
	"filter":     groupVisual,
	"backdrop":   groupVisual,
	"mask":       groupVisual,
	"clip":       groupVisual,
	"transform":  groupVisual,
	"translate":  groupVisual,
	"rotate":     groupVisual,
	"scale":      groupVisual,
}

// Properties grouped with another family than their name suggests.
var propertyAliases = map[string]int{
	"box-shadow": groupVisual,
	"word-wrap":  groupBox, // legacy name of overflow-wrap
}

var vendorPrefixes = []string{"-webkit-", "-moz-", "-ms-", "-o-"}

func propertyGroup(property string) int {
	if strings.HasPrefix(property, "--") {
		return groupCustom
	}
	for _, p := range vendorPrefixes {
		property = strings.TrimPrefix(property, p)
	}
	if g, ok := propertyAliases[property]; ok {
		return g
	}
	family, _, _ := strings.Cut(property, "-")
	if g, ok := propertyFamilies[family]; ok {
		return g
	}
	return groupMisc
}

// Normalize re-renders a stylesheet in a canonical layout. Property names are
// lowercased, whitespace in values collapses to single spaces, and exact
// duplicate declarations keep only their last occurrence. Declarations are
// then grouped (positioning, box, typography, visual, the rest) with their
// relative order preserved inside each group. Blocks containing "all" are
// left in source order, since "all" resets every group.
func Normalize(content string) (string, error) {
	sheet, err := parser.Parse(content)
	if err != nil {
		return "", fmt.Errorf("error parsing CSS: %w", err)
	}
	for _, rule := range sheet.Rules {
		normalizeRule(rule)
	}
	out := sheet.String()
	if out != "" && !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out, nil
}

func normalizeRule(rule *dcss.Rule) {
	for i, sel := range rule.Selectors {
		rule.Selectors[i] = collapseSpace(sel)
	}
	rule.Declarations = normalizeDeclarations(rule.Declarations)
	for _, child := range rule.Rules {
		normalizeRule(child)
	}
}

func normalizeDeclarations(decls []*dcss.Declaration) []*dcss.Declaration {
	if len(decls) == 0 {
		return decls
	}

	for _, d := range decls {
		if !strings.HasPrefix(d.Property, "--") {
			d.Property = strings.ToLower(strings.TrimSpace(d.Property))
			d.Value = collapseSpace(d.Value)
		}
	}

	// Keep the last of any exact duplicates.
	last := make(map[string]int, len(decls))
	for i, d := range decls {
		last[normalizedKey(d)] = i
	}
	kept := make([]*dcss.Declaration, 0, len(last))
	hasAll := false
	for i, d := range decls {
		if last[normalizedKey(d)] != i {
			continue
		}
		if d.Property == "all" {
			hasAll = true
		}
		kept = append(kept, d)
	}

	if !hasAll {
		sort.SliceStable(kept, func(i, j int) bool {
			return propertyGroup(kept[i].Property) < propertyGroup(kept[j].Property)
		})
	}
	return kept
}

func normalizedKey(d *dcss.Declaration) string {
	return fmt.Sprintf("%s:%s:%t", d.Property, d.Value, d.Important)
}

// collapseSpace folds runs of whitespace into one space outside of quoted
// strings.
func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	var quote rune
	pendingSpace, escaped := false, false
	for _, r := range strings.TrimSpace(s) {
		if !escaped && quote == 0 && (r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f') {
			pendingSpace = true
			continue
		}
		if pendingSpace {
			sb.WriteByte(' ')
			pendingSpace = false
		}
		switch {
		case escaped:
			escaped = false
		case r == '\\':
			escaped = true
		case quote == 0 && (r == '"' || r == '\''):
			quote = r
		case r == quote:
			quote = 0
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
