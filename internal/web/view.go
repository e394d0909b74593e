package web

import "github.com/lakeview-dev/lakeview/internal/catalog"

// pageView carries the fields shared by every rendered page.
type pageView struct {
	Title       string
	Lang        string
	SignedIn    bool
	DisplayName string
}

// homeView renders the search page.
type homeView struct {
	pageView
	Term          string
	Filters       []string
	Results       []catalog.EntrySummary
	NextPageToken string
	Searched      bool
}

// resourcesView renders the browse page with its filter panel.
type resourcesView struct {
	pageView
	Systems       []string
	Types         []string
	Results       []catalog.EntrySummary
	NextPageToken string
}

// entryView renders the entry detail page with its tab strip.
type entryView struct {
	pageView
	Entry     catalog.Entry
	ActiveTab string
	Lineage   *catalog.LineageGraph
	Profile   *catalog.ProfileScan
	History   []string
}

// sessionExpiredView renders the recovery landing page.
type sessionExpiredView struct {
	pageView
	Reason  string
	Message string
}

// errorView renders the shared error page.
type errorView struct {
	pageView
	Status  int
	Message string
}
