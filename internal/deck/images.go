package deck

import (
	"strings"
)

// NormalizeImage rewrites a stored image reference to the /images/<file>
// form the static server expects. Older exports persisted absolute
// filesystem paths (sometimes Windows ones, sometimes nested under another
// /images/ prefix). Remote URLs are kept as they are.
func NormalizeImage(ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	p := strings.ReplaceAll(strings.ReplaceAll(*ref, `\\`, "/"), `\`, "/")

	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return &p
	}

	parts := strings.Split(p, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		seg := strings.ToLower(parts[i])
		if seg == "images" && i+1 < len(parts) && parts[i+1] != "" {
			out := "/images/" + parts[i+1]
			return &out
		}
	}

	file := parts[len(parts)-1]
	if file == "" {
		return nil
	}
	out := "/images/" + file
	return &out
}
