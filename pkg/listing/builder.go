package listing

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/carsearch/pkg/extract"
	"github.com/Sternrassler/carsearch/pkg/logging"
)

// DefaultOrigin is prefixed onto listing paths to form absolute links.
const DefaultOrigin = "https://www.autotrader.co.uk"

// Selectors for the result-card markup.
const (
	SelectorArticle     = "article"
	SelectorTitle       = "h3.product-card-details__title"
	SelectorSubtitle    = "p.product-card-details__subtitle"
	SelectorBadge       = "li.badge-group__item"
	SelectorLink        = "a.tracking-standard-link"
	SelectorPrice       = "div.product-card-pricing__price"
	SelectorKeySpecs    = "ul.listing-key-specs"
	SelectorSellerName  = "div.product-card-seller-info__name-container h3"
	SelectorSellerSpecs = "ul.product-card-seller-info__specs"
)

const (
	attrStandoutType      = "data-standout-type"
	attrBadgeCategory     = "data-category"
	badgeCategoryWriteOff = "writeOff"
)

var listingParseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "carsearch_listing_parse_failures_total",
	Help: "Listings skipped because their markup could not be read, by field",
}, []string{"field"})

// Builder turns result-card nodes into records.
type Builder struct {
	origin string
	logger zerolog.Logger
}

// NewBuilder creates a builder that resolves links against origin.
// An empty origin selects DefaultOrigin.
func NewBuilder(origin string) *Builder {
	if origin == "" {
		origin = DefaultOrigin
	}
	return &Builder{
		origin: strings.TrimRight(origin, "/"),
		logger: logging.NewLogger("listing-builder"),
	}
}

// Nodes returns the organic listing nodes of a results fragment. Promoted
// cards carry a non-empty data-standout-type and are left out.
func Nodes(doc *goquery.Document) *goquery.Selection {
	return doc.Find(SelectorArticle).FilterFunction(func(_ int, s *goquery.Selection) bool {
		v, ok := s.Attr(attrStandoutType)
		return !ok || v == ""
	})
}

// BuildPage parses a results fragment and builds a record per listing node.
// A listing that fails to build is logged and skipped; nodes reports how many
// listing nodes were found regardless of how many built.
func (b *Builder) BuildPage(html string) (records []Record, nodes int, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, fmt.Errorf("parse results markup: %w", err)
	}

	sel := Nodes(doc)
	nodes = sel.Length()
	records = make([]Record, 0, nodes)

	sel.Each(func(i int, s *goquery.Selection) {
		rec, err := b.Build(s)
		if err != nil {
			field := "unknown"
			var se *StructuralError
			if errors.As(err, &se) {
				field = se.Field
			}
			listingParseFailures.WithLabelValues(field).Inc()
			b.logger.Warn().
				Err(err).
				Int("index", i).
				Msg("Skipping listing with unreadable markup")
			return
		}
		records = append(records, rec)
	})

	return records, nodes, nil
}

// Build assembles one record from a listing node.
func (b *Builder) Build(s *goquery.Selection) (Record, error) {
	var r Record

	title, err := requiredText(s, SelectorTitle, "model_name")
	if err != nil {
		return r, err
	}
	r.ModelName = title

	subtitle, err := requiredText(s, SelectorSubtitle, "model_info")
	if err != nil {
		return r, err
	}
	r.ModelInfo = subtitle
	r.Doors = extract.Doors(subtitle)

	if r.ValueIndicator, r.WriteOffCategory, err = badges(s); err != nil {
		return r, err
	}

	if r.ID, r.Link, err = b.link(s); err != nil {
		return r, err
	}

	if r.Price, err = price(s); err != nil {
		return r, err
	}

	specs := s.Find(SelectorKeySpecs).First()
	if specs.Length() == 0 {
		return r, missing("key_specs", SelectorKeySpecs)
	}
	if r.KeySpecs, err = extract.ParseKeySpecs(specs.Text()); err != nil {
		return r, &StructuralError{Field: "mileage", Selector: SelectorKeySpecs, Err: err}
	}

	if err := seller(s, &r); err != nil {
		return r, err
	}

	return r, nil
}

func requiredText(s *goquery.Selection, selector, field string) (string, error) {
	node := s.Find(selector).First()
	if node.Length() == 0 {
		return "", missing(field, selector)
	}
	return strings.TrimSpace(node.Text()), nil
}

// badges reads the value badge and write-off category. Later value badges
// overwrite earlier ones. A write-off badge without a category letter is a
// StructuralError.
func badges(s *goquery.Selection) (value, writeOff *string, err error) {
	s.Find(SelectorBadge).EachWithBreak(func(_ int, badge *goquery.Selection) bool {
		category, ok := badge.Attr(attrBadgeCategory)
		if !ok {
			return true
		}
		text := strings.TrimSpace(badge.Text())

		if strings.TrimSpace(category) == badgeCategoryWriteOff {
			// "Cat S" -> "S"
			parts := strings.Fields(text)
			if len(parts) < 2 {
				err = &StructuralError{
					Field:    "write_off_category",
					Selector: SelectorBadge,
					Err:      fmt.Errorf("unexpected write-off badge %q", text),
				}
				return false
			}
			cat := parts[1]
			writeOff = &cat
			return true
		}

		lowered := strings.ToLower(text)
		value = &lowered
		return true
	})
	return value, writeOff, err
}

func (b *Builder) link(s *goquery.Selection) (id, link string, err error) {
	href, ok := s.Find(SelectorLink).First().Attr("href")
	if !ok {
		return "", "", missing("link", SelectorLink+"[href]")
	}

	path, _, _ := strings.Cut(href, "?")
	segments := strings.Split(strings.TrimRight(path, "/"), "/")
	id = segments[len(segments)-1]
	if id == "" {
		return "", "", &StructuralError{Field: "id", Selector: SelectorLink, Err: fmt.Errorf("empty path in %q", href)}
	}

	return id, b.origin + "/" + strings.TrimLeft(path, "/"), nil
}

func price(s *goquery.Selection) (int, error) {
	text, err := requiredText(s, SelectorPrice, "price")
	if err != nil {
		return 0, err
	}

	parts := strings.Split(text, "£")
	amount := strings.ReplaceAll(strings.TrimSpace(parts[len(parts)-1]), ",", "")
	p, err := strconv.Atoi(amount)
	if err != nil {
		return 0, &StructuralError{Field: "price", Selector: SelectorPrice, Err: err}
	}
	return p, nil
}

// seller fills the seller fields. With two spec items the first carries the
// rating and review count; otherwise rating and reviews stay null. The last
// item always carries location and distance.
func seller(s *goquery.Selection, r *Record) error {
	name, err := requiredText(s, SelectorSellerName, "seller")
	if err != nil {
		return err
	}
	r.Seller = name

	specs := s.Find(SelectorSellerSpecs).First()
	if specs.Length() == 0 {
		return missing("location", SelectorSellerSpecs)
	}
	items := specs.Find("li")
	if items.Length() == 0 {
		return missing("location", SelectorSellerSpecs+" li")
	}

	last := items.Last()
	loc := last.Find("span").First()
	if loc.Length() == 0 {
		return missing("location", SelectorSellerSpecs+" li span")
	}
	r.Location = strings.TrimSpace(loc.Text())
	r.Distance = extract.Distance(strings.TrimSpace(last.Text()))

	if items.Length() != 2 {
		return nil
	}

	ratings := items.First()
	ratingText := strings.TrimSpace(ratings.Find("span").First().Text())
	rating, err := strconv.ParseFloat(ratingText, 64)
	if err != nil {
		return &StructuralError{Field: "seller_rating", Selector: SelectorSellerSpecs + " li span", Err: err}
	}
	r.SellerRating = &rating

	reviews := ratings.Find("a").First()
	if reviews.Length() == 0 {
		return missing("seller_reviews", SelectorSellerSpecs+" li a")
	}
	r.SellerReviews = extract.ReviewCount(strings.TrimSpace(reviews.Text()))

	return nil
}
