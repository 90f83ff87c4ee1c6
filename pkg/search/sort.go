package search

// SortOption maps a sort name to the token sent on the wire.
type SortOption struct {
	Name  string
	Token string
}

// SortOptions lists the accepted sort names in display order.
var SortOptions = []SortOption{
	{"Relevance", "relevance"},
	{"Price (Lowest)", "price-asc"},
	{"Price (Highest)", "price-desc"},
	{"Distance", "distance"},
	{"Mileage", "mileage"},
	{"Age (Newest first)", "year-desc"},
	{"Age (Oldest first)", "year-asc"},
	{"Most recent", "datedesc"},
}

// SortToken returns the wire token for name.
func SortToken(name string) (string, error) {
	for _, opt := range SortOptions {
		if opt.Name == name {
			return opt.Token, nil
		}
	}
	return "", &ConfigError{Option: "sort", Value: name, Valid: SortNames()}
}

// SortNames returns the accepted sort names.
func SortNames() []string {
	names := make([]string, len(SortOptions))
	for i, opt := range SortOptions {
		names[i] = opt.Name
	}
	return names
}
