package cache

import (
	"sort"
	"strconv"
	"strings"
)

// ListKey builds the key of a list query. Parameter names are sorted and
// multi-valued parameters are sorted and comma joined, so logically equal
// queries share a key whatever order they were written in. With prefix
// "learning_library:" and page=2, limit=5 the key is
// "learning_library:all:limit:5|page:2"; without parameters it is
// "learning_library:all". Empty parameters are ignored.
func ListKey(prefix string, params map[string][]string) string {
	names := make([]string, 0, len(params))
	for name, values := range params {
		if len(nonEmpty(values)) > 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ListPrefix(prefix)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		values := nonEmpty(params[name])
		sort.Strings(values)
		parts[i] = name + ":" + strings.Join(values, ",")
	}
	return ListPrefix(prefix) + ":" + strings.Join(parts, "|")
}

// ListPrefix is the prefix shared by every list key of a section.
func ListPrefix(prefix string) string {
	return prefix + "all"
}

// ByIDKey builds the key of a single entity.
func ByIDKey(prefix string, id int64) string {
	return prefix + "id:" + strconv.FormatInt(id, 10)
}

// ByUserKey builds the key of user-specific data.
func ByUserKey(prefix string, userID int64, sub string) string {
	key := prefix + "user:" + strconv.FormatInt(userID, 10)
	if sub != "" {
		key += ":" + sub
	}
	return key
}

// CustomKey joins parts under prefix.
func CustomKey(prefix string, parts ...string) string {
	return prefix + strings.Join(parts, ":")
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
