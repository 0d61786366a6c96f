package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var junkIdentRe = regexp.MustCompile(
	`(?i)(cookie|consent|gdpr|banner|modal|popup|subscribe|sign[\s_-]?in|sign[\s_-]?up|login|register|advert|ads|promo|footer|header|nav|sidebar)`,
)

// blockTags are elements that end a line when rendering text.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "ul": true, "ol": true, "table": true, "tr": true,
	"blockquote": true, "pre": true, "figure": true, "figcaption": true,
	"dd": true, "dt": true, "dl": true,
}

// ExtractMainText strips boilerplate from an HTML page and renders the main
// content as plain text with paragraph breaks preserved:
//   - non-content tags removed (script/style/svg/img/iframe/canvas)
//   - boilerplate containers removed (nav/footer/header/aside/form)
//   - banner/modal/cookie/login sections removed by class/id heuristics
//   - prefers <main> or <article>, else falls back to <body>
func ExtractMainText(htmlStr string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript, svg, img, iframe, canvas").Remove()
	doc.Find("nav, footer, header, aside, form").Remove()

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		class, _ := s.Attr("class")
		role, _ := s.Attr("role")
		ident := strings.TrimSpace(id + " " + class + " " + role)
		if ident != "" && junkIdentRe.MatchString(ident) {
			s.Remove()
		}
	})

	root := doc.Find("main").First()
	if root.Length() == 0 {
		root = doc.Find("article").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body").First()
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	var b strings.Builder
	for _, n := range root.Nodes {
		renderText(n, &b)
	}
	return strings.TrimSpace(b.String()), nil
}

// WholePageText renders every text node of the page with no boilerplate
// removal. Used as the generic fallback loader when main-content extraction
// comes up short.
func WholePageText(htmlStr string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, n := range doc.Selection.Nodes {
		renderText(n, &b)
	}
	return strings.TrimSpace(b.String()), nil
}

func renderText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	if n.Type == html.ElementNode && n.Data == "br" {
		b.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(c, b)
	}
	if n.Type == html.ElementNode && blockTags[n.Data] {
		b.WriteString("\n")
	}
}
