// Package keygen regenerates the configuration-key macro block of the GNSS
// CFG-VAL key header.
//
// The header is hand-maintained in one place only: the uGnssCfgValKeyItem_t
// enum listing every known key item with its 32-bit key ID. Everything a C
// application actually #includes — the U_GNSS_CFG_VAL_KEY_ID_... and group
// ID macros — is derived from that enum and lives between AUTO-GENERATED
// markers so the tool can rewrite it without touching the rest of the file.
package keygen

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	itemPrefix = "U_GNSS_CFG_VAL_KEY_ITEM_"

	// Marker lines delimiting the machine-written block. Everything on or
	// between these lines is replaced; everything else round-trips
	// byte-for-byte.
	beginMarker = "/* AUTO-GENERATED BY ubxkit genkeys: DO NOT EDIT, BEGIN */"
	endMarker   = "/* AUTO-GENERATED BY ubxkit genkeys: DO NOT EDIT, END */"
)

// Item is one configuration key from the enum.
type Item struct {
	// Name is the part after U_GNSS_CFG_VAL_KEY_ITEM_, e.g. ANA_USE_ANA_L.
	Name string
	// KeyID is the 32-bit key identifier.
	KeyID uint32
}

// GroupID extracts the key group from the key ID (bits 16..23).
func (it Item) GroupID() uint32 { return (it.KeyID >> 16) & 0xFF }

// GroupName is the leading underscore-delimited token of the item name,
// which by header convention is shared by every item of a group.
func (it Item) GroupName() string {
	if i := strings.IndexByte(it.Name, '_'); i > 0 {
		return it.Name[:i]
	}
	return it.Name
}

var itemRe = regexp.MustCompile(`(?m)^\s*` + itemPrefix + `([A-Z0-9_]+)\s*=\s*(0[xX][0-9a-fA-F]{1,8})\s*,?`)

// ParseItems extracts the key items from header source. Duplicate names or
// key IDs are errors: both would silently corrupt the generated macros.
func ParseItems(src []byte) ([]Item, error) {
	matches := itemRe.FindAllSubmatch(src, -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no %s<NAME> = 0x... enum entries found", itemPrefix)
	}

	items := make([]Item, 0, len(matches))
	byName := make(map[string]bool, len(matches))
	byID := make(map[uint32]string, len(matches))
	groupName := make(map[uint32]string)

	for _, m := range matches {
		name := string(m[1])
		v, err := strconv.ParseUint(string(m[2]), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("key ID of %s%s: %w", itemPrefix, name, err)
		}
		it := Item{Name: name, KeyID: uint32(v)}

		if byName[name] {
			return nil, fmt.Errorf("duplicate key item name %s", name)
		}
		byName[name] = true
		if prev, ok := byID[it.KeyID]; ok {
			return nil, fmt.Errorf("key ID 0x%08x used by both %s and %s", it.KeyID, prev, name)
		}
		byID[it.KeyID] = name
		if prev, ok := groupName[it.GroupID()]; ok && prev != it.GroupName() {
			return nil, fmt.Errorf("group 0x%02x named both %s and %s", it.GroupID(), prev, it.GroupName())
		}
		groupName[it.GroupID()] = it.GroupName()

		items = append(items, it)
	}

	return items, nil
}

// Render produces the macro block body (without markers): one group ID macro
// per distinct group, then one key ID macro per item, both in ascending ID
// order so regeneration is deterministic.
func Render(items []Item) []byte {
	groups := make(map[uint32]string)
	for _, it := range items {
		groups[it.GroupID()] = it.GroupName()
	}
	groupIDs := make([]uint32, 0, len(groups))
	for id := range groups {
		groupIDs = append(groupIDs, id)
	}
	sort.Slice(groupIDs, func(i, j int) bool { return groupIDs[i] < groupIDs[j] })

	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].KeyID < sorted[j].KeyID })

	var b bytes.Buffer
	b.WriteString("\n/** The group IDs of the configuration keys. */\n")
	for _, id := range groupIDs {
		fmt.Fprintf(&b, "#define U_GNSS_CFG_VAL_KEY_GROUP_ID_%s 0x%02x\n", groups[id], id)
	}
	b.WriteString("\n/** The configuration key IDs. */\n")
	for _, it := range sorted {
		fmt.Fprintf(&b, "#define U_GNSS_CFG_VAL_KEY_ID_%s 0x%08x\n", it.Name, it.KeyID)
	}
	b.WriteByte('\n')
	return b.Bytes()
}

// Regenerate parses the enum in src and splices a freshly rendered macro
// block between the markers. The result is stable: regenerating an already
// regenerated header changes nothing.
func Regenerate(src []byte) ([]byte, error) {
	items, err := ParseItems(src)
	if err != nil {
		return nil, err
	}

	begin := bytes.Index(src, []byte(beginMarker))
	if begin < 0 {
		return nil, fmt.Errorf("begin marker %q not found", beginMarker)
	}
	end := bytes.Index(src, []byte(endMarker))
	if end < 0 {
		return nil, fmt.Errorf("end marker %q not found", endMarker)
	}
	if end < begin {
		return nil, fmt.Errorf("end marker precedes begin marker")
	}

	var out bytes.Buffer
	out.Grow(len(src) + 1024)
	out.Write(src[:begin])
	out.WriteString(beginMarker)
	out.WriteByte('\n')
	out.Write(Render(items))
	out.Write(src[end:])
	return out.Bytes(), nil
}
