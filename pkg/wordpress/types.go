// Package wordpress is a minimal read-only client for the WordPress REST
// API, covering the posts listing used by the batch renderer.
package wordpress

// Rendered wraps the WordPress "rendered" HTML envelope.
type Rendered struct {
	Rendered string `json:"rendered"`
}

// Term is a taxonomy term attached to a post (category, post_tag, ...).
type Term struct {
	Taxonomy string `json:"taxonomy"`
	Name     string `json:"name"`
}

// Embedded carries the _embedded expansions requested with _embed=true.
// Terms is grouped by taxonomy, mirroring the wp:term shape.
type Embedded struct {
	Terms [][]Term `json:"wp:term"`
}

// Post is a WordPress post as returned by /wp-json/wp/v2/posts. Only the
// fields requested via _fields are populated.
type Post struct {
	ID       int      `json:"id"`
	Date     string   `json:"date"`
	Title    Rendered `json:"title"`
	Content  Rendered `json:"content"`
	Embedded Embedded `json:"_embedded"`
}

// Terms flattens the embedded taxonomy groups into a single slice in
// document order.
func (p Post) Terms() []Term {
	var out []Term
	for _, group := range p.Embedded.Terms {
		out = append(out, group...)
	}
	return out
}

// Pagination carries the listing totals reported by the API headers.
type Pagination struct {
	Total      int // X-WP-Total
	TotalPages int // X-WP-TotalPages
}
