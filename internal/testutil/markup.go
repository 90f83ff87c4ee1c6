package testutil

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// Listing describes one result card for markup generation. Empty optional
// fields leave their node out.
type Listing struct {
	ID           string
	Title        string
	Subtitle     string
	Price        string
	KeySpecs     []string
	Badges       []Badge
	Seller       string
	Rating       string
	Reviews      string
	Location     string
	Distance     string
	StandoutType string
	NoTitle      bool
}

// Badge is a badge-group item. An empty Category omits the data-category attribute.
type Badge struct {
	Category string
	Text     string
}

// DefaultListing returns a fully populated dealer listing.
func DefaultListing(id string) Listing {
	return Listing{
		ID:       id,
		Title:    "BMW 5 Series",
		Subtitle: "2.0 520d M Sport Saloon 4dr Diesel Auto Euro 6 (s/s) (190 ps)",
		Price:    "£21,995",
		KeySpecs: []string{"2018 (68 reg)", "Saloon", "45,210 miles", "2.0L", "190PS", "Automatic", "Diesel", "1 owner", "ULEZ"},
		Badges:   []Badge{{Category: "priceIndicator", Text: "Good price"}},
		Seller:   "Example Motors",
		Rating:   "4.7",
		Reviews:  "(134 reviews)",
		Location: "London",
		Distance: "(3 miles)",
	}
}

// HTML renders the listing as a result-card article.
func (l Listing) HTML() string {
	var b strings.Builder

	fmt.Fprintf(&b, "<article data-standout-type=%q>\n", l.StandoutType)
	if !l.NoTitle {
		fmt.Fprintf(&b, "<h3 class=\"product-card-details__title\">\n %s \n</h3>\n", html.EscapeString(l.Title))
	}
	fmt.Fprintf(&b, "<p class=\"product-card-details__subtitle\"> %s </p>\n", html.EscapeString(l.Subtitle))

	if len(l.Badges) > 0 {
		b.WriteString("<ul class=\"badge-group\">\n")
		for _, badge := range l.Badges {
			if badge.Category == "" {
				fmt.Fprintf(&b, "<li class=\"badge-group__item\">%s</li>\n", html.EscapeString(badge.Text))
				continue
			}
			fmt.Fprintf(&b, "<li class=\"badge-group__item\" data-category=%q> %s </li>\n", badge.Category, html.EscapeString(badge.Text))
		}
		b.WriteString("</ul>\n")
	}

	fmt.Fprintf(&b, "<a class=\"js-click-handler listing-fpa-link tracking-standard-link\" href=\"/car-details/%s?sort=relevance&amp;page=1\">view</a>\n", l.ID)
	if l.Price != "" {
		fmt.Fprintf(&b, "<div class=\"product-card-pricing__price\"><span>%s</span></div>\n", html.EscapeString(l.Price))
	}

	b.WriteString("<ul class=\"listing-key-specs\">\n")
	for _, spec := range l.KeySpecs {
		fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(spec))
	}
	b.WriteString("</ul>\n")

	fmt.Fprintf(&b, "<div class=\"product-card-seller-info__name-container\"><h3>%s</h3></div>\n", html.EscapeString(l.Seller))
	b.WriteString("<ul class=\"product-card-seller-info__specs\">\n")
	if l.Rating != "" {
		fmt.Fprintf(&b, "<li><span>%s</span> <a href=\"#reviews\">%s</a></li>\n", l.Rating, html.EscapeString(l.Reviews))
	}
	fmt.Fprintf(&b, "<li><span>%s</span> - %s</li>\n", html.EscapeString(l.Location), html.EscapeString(l.Distance))
	b.WriteString("</ul>\n")

	b.WriteString("</article>\n")
	return b.String()
}

// PageHTML wraps listings in a results fragment.
func PageHTML(listings ...Listing) string {
	var b strings.Builder
	b.WriteString("<div class=\"search-page__results\">\n")
	for _, l := range listings {
		b.WriteString(l.HTML())
	}
	b.WriteString("</div>")
	return b.String()
}

// PageJSON wraps listings in the JSON envelope served by the results endpoint.
func PageJSON(listings ...Listing) string {
	body, err := json.Marshal(map[string]string{"html": PageHTML(listings...)})
	if err != nil {
		panic(err)
	}
	return string(body)
}
