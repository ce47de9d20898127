// Package main provides the entry point for the pagewalk CLI.
//
// pagewalk walks a site's listing pages backward through their
// "previous page" links, scrapes every item it finds and submits the
// records to a sink.
//
// Usage:
//
//	pagewalk crawl <source>
//	pagewalk crawl --resume <source>
//	pagewalk probe <source> <url>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
