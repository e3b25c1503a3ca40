package css

import "sync"

// DefaultUserAgentCSS is the built-in style sheet applied beneath every
// author style sheet.
const DefaultUserAgentCSS = `
html, body, div, p, ul, ol, li, dl, dt, dd, blockquote, pre, address,
h1, h2, h3, h4, h5, h6, hr, header, footer, section, article, nav, main,
aside, figure, figcaption, form, fieldset, center, table, details, summary {
	display: block;
}
li { display: list-item; }
head, style, script, title, meta, link, base, template, noscript { display: none; }

body { margin: 8px; }
p, dl, blockquote, figure, pre { margin: 1em 0; }
blockquote, figure { margin-left: 40px; margin-right: 40px; }
ul, ol { margin: 1em 0; padding-left: 40px; }
dd { margin-left: 40px; }

h1 { font-size: 2em; margin: 0.67em 0; }
h2 { font-size: 1.5em; margin: 0.83em 0; }
h3 { font-size: 1.17em; margin: 1em 0; }
h4 { margin: 1.33em 0; }
h5 { font-size: 0.83em; margin: 1.67em 0; }
h6 { font-size: 0.67em; margin: 2.33em 0; }
h1, h2, h3, h4, h5, h6, b, strong, th, dt { font-weight: bold; }

i, em, cite, var, dfn, address { font-style: italic; }
small { font-size: smaller; }
big { font-size: larger; }
pre, code, kbd, samp, tt { font-family: monospace; }
pre { white-space: pre; }
center { text-align: center; }

a { color: #0645ad; text-decoration: underline; }
u, ins { text-decoration: underline; }
s, strike, del { text-decoration: line-through; }
hr { border: 1px solid gray; margin: 0.5em 0; }
`

var (
	userAgentOnce  sync.Once
	userAgentSheet *Stylesheet
)

// UserAgentStylesheet returns the parsed built-in style sheet. It is parsed
// once and must not be modified.
func UserAgentStylesheet() *Stylesheet {
	userAgentOnce.Do(func() {
		userAgentSheet = Parse(DefaultUserAgentCSS, WithOrigin(OriginUserAgent))
	})
	return userAgentSheet
}
