package vfs

import "strings"

// Pure path utilities. These hold no shared state and operate on normalized,
// slash-delimited paths.

// IsAbs reports whether the path is absolute.
func IsAbs(path string) bool {
	return strings.HasPrefix(path, "/")
}

// CleanPath normalizes a path: collapses redundant separators, resolves "."
// and ".." segments (never past the root) and strips the trailing separator.
// The result is always absolute; an empty path cleans to "/".
func CleanPath(path string) string {
	segments := strings.Split(path, "/")
	cleaned := make([]string, 0, len(segments))

	for _, segment := range segments {
		switch segment {
		case "", ".":
			continue
		case "..":
			if len(cleaned) > 0 {
				cleaned = cleaned[:len(cleaned)-1]
			}
		default:
			cleaned = append(cleaned, segment)
		}
	}

	if len(cleaned) == 0 {
		return "/"
	}

	return "/" + strings.Join(cleaned, "/")
}

// SplitPath cleans the path and splits it into its directory part and leaf
// name. The root splits into ("/", "").
func SplitPath(path string) (dir, leaf string) {
	path = CleanPath(path)
	if path == "/" {
		return "/", ""
	}

	idx := strings.LastIndexByte(path, '/')
	if idx == 0 {
		return "/", path[1:]
	}

	return path[:idx], path[idx+1:]
}

// pathHasPrefix reports whether path lies at or beneath the cleaned prefix.
func pathHasPrefix(path, prefix string) bool {
	if prefix == "/" {
		return IsAbs(path)
	}

	if !strings.HasPrefix(path, prefix) {
		return false
	}

	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func trimSlashes(path string) string {
	return strings.Trim(path, "/")
}

// splitSegments returns the cleaned path's segments, nil for the root.
func splitSegments(path string) []string {
	path = CleanPath(path)
	if path == "/" {
		return nil
	}

	return strings.Split(path[1:], "/")
}
