package utils

// ContainsString reports whether searchTerm occurs in slice.
func ContainsString(slice []string, searchTerm string) bool {
	for _, s := range slice {
		if searchTerm == s {
			return true
		}
	}
	return false
}
