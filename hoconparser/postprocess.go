package hoconparser

import (
	"regexp"
	"sort"
	"strconv"
)

var arrayIndexRegexp = regexp.MustCompile(`^(0|[1-9][0-9]*)$`)

// ConvertNumericObjects rewrites, bottom-up, every non-empty object whose
// keys are all non-negative decimal integers (no leading zeros) into an
// array ordered by numeric key. Applying it twice is the same as applying
// it once: the produced arrays contain no convertible objects.
func ConvertNumericObjects(v Value) Value {
	switch v := v.(type) {
	case Array:
		result := make(Array, len(v))
		for i, e := range v {
			result[i] = ConvertNumericObjects(e)
		}
		return result
	case *Object:
		result := NewObject()
		for _, k := range v.Keys() {
			e, _ := v.Get(k)
			result.Set(k, ConvertNumericObjects(e))
		}
		if result.Len() == 0 {
			return result
		}
		indexes := make([]int, 0, result.Len())
		for _, k := range result.Keys() {
			if !arrayIndexRegexp.MatchString(k) {
				return result
			}
			i, err := strconv.Atoi(k)
			if err != nil {
				return result
			}
			indexes = append(indexes, i)
		}
		sort.Ints(indexes)
		arr := make(Array, 0, len(indexes))
		for _, i := range indexes {
			e, _ := result.Get(strconv.Itoa(i))
			arr = append(arr, e)
		}
		return arr
	default:
		return v
	}
}
