// Package schema describes what to extract from a source and how to clean it.
//
// A Source is pure data: a name, a base address, an entry point and a Schema
// of FieldSpecs. Each FieldSpec pairs a compiled selector with an optional
// Normalizer. Adding a new scraping target means writing one YAML
// definition; no Go code changes.
//
// # Definitions
//
//	name: example
//	url: https://example.com
//	favicon: /favicon.ico
//	entryPoint: https://example.com/latest/2.html
//	fields:
//	  previousPage:
//	    selector: '(//ul[@class="pagination"]/li[@class="active"]/preceding-sibling::li/a/@href)[last()]'
//	    normalize: [resolve_url]
//	  itemLinks:
//	    selector: '//h2[@class="title"]/a/@href'
//	    normalize: [resolve_url]
//	  itemThumbnails:
//	    selector: 'css:article img@data-src'
//	    normalize: [resolve_url]
//	  item:
//	    title:    {selector: '//h1/text()', normalize: [trim]}
//	    duration: {selector: '//span[@class="len"]/text()', normalize: [hms_seconds]}
//	    tags:     {selector: '//a[@rel="tag"]/text()', normalize: [trim, drop_empty, dedupe]}
//
// Selectors and normalizer names are validated when the definition is
// turned into a Source, so a typo fails at load time rather than mid-crawl.
//
// # Normalizers
//
// Normalizers are list transforms named in the definition, optionally with an
// argument after a colon ("strip_suffix: - Example"). strip_prefix,
// strip_suffix and replace use the argument verbatim, whitespace included.
// regex and split trim it, so "regex: (\d+)" is the pattern "(\d+)".
// A field without normalizers returns raw selector values unchanged.
// See Names for the registered set.
package schema
