package sanitizer

// NormalizeStringSlice applies the normalizer to every element, dropping
// empties and duplicates while preserving first-seen order.
func NormalizeStringSlice(items []string, normalizer Strategy) []string {
	if len(items) == 0 {
		return []string{}
	}

	seen := make(map[string]bool)
	result := make([]string, 0, len(items))

	for _, item := range items {
		normalized := normalizer(item)

		if normalized == "" || seen[normalized] {
			continue
		}

		seen[normalized] = true
		result = append(result, normalized)
	}

	return result
}

func NormalizeAmenities(amenities []string) []string {
	return NormalizeStringSlice(amenities, NormalizeLocation)
}

func NormalizeImageURLs(urls []string) []string {
	return NormalizeStringSlice(urls, TrimAndNormalize)
}
