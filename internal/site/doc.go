// Package site is the generator: it turns the content corpus, the
// navigation descriptor and the site configuration record into a static
// site directory.
//
// A build runs five stages in order:
//
//	load      configuration derived theme, sidebars, corpora per locale, static files
//	validate  navigation problems, navbar targets, resolved sidebar trees
//	render    document, category index, home and 404 pages
//	links     internal link check of every rendered page
//	write     output directory, stylesheet, sitemap.xml, manifest.json
//
// The first fatal error stops the build. Output is written only by the last
// stage, into a staging directory that replaces the output directory once
// complete, so a failed build never leaves a partial site behind.
package site
